package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinDishNameLength = 3
	MaxDishNameLength = 200
	MinCodeLength     = 6
	MaxCodeLength     = 64
	MinPrice          = 1
	MaxPrice          = 100000
	MinReasonLength   = 5
	MaxReasonLength   = 2000
	MaxRatingText     = 1000
	MaxUniLength      = 100
	MinNameLength     = 2
	MaxNameLength     = 100
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateDishName проверяет название блюда.
func ValidateDishName(name string) error {
	if err := ValidateNonEmpty("название блюда", name); err != nil {
		return err
	}
	return ValidateLength("название блюда", strings.TrimSpace(name), MinDishNameLength, MaxDishNameLength)
}

// ValidateMealCode проверяет код питания: допустимы только буквы и цифры,
// длина в заданных пределах.
func ValidateMealCode(code string) error {
	code = strings.TrimSpace(code)
	if err := ValidateLength("код", code, MinCodeLength, MaxCodeLength); err != nil {
		return err
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("код может содержать только буквы и цифры")
		}
	}
	return nil
}

// ValidatePrice проверяет цену.
func ValidatePrice(price int) error {
	if price < MinPrice {
		return fmt.Errorf("цена должна быть положительной")
	}
	if price > MaxPrice {
		return fmt.Errorf("цена не может превышать %d", MaxPrice)
	}
	return nil
}

// ValidateListingDate проверяет дату объявления: не раньше сегодняшнего дня.
func ValidateListingDate(date, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return fmt.Errorf("дата объявления не может быть в прошлом")
	}
	return nil
}

// ValidateStars проверяет оценку.
func ValidateStars(stars int) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("оценка должна быть от 1 до 5")
	}
	return nil
}

// ValidateDisputeReason проверяет причину спора.
func ValidateDisputeReason(reason string) error {
	if err := ValidateNonEmpty("причина спора", reason); err != nil {
		return err
	}
	return ValidateLength("причина спора", strings.TrimSpace(reason), MinReasonLength, MaxReasonLength)
}

// ValidateRatingText проверяет текст отзыва.
func ValidateRatingText(text *string) error {
	if text != nil && *text != "" {
		return ValidateLength("текст отзыва", strings.TrimSpace(*text), 0, MaxRatingText)
	}
	return nil
}

// ValidateUserName проверяет отображаемое имя пользователя.
func ValidateUserName(name string) error {
	if err := ValidateNonEmpty("имя", name); err != nil {
		return err
	}
	return ValidateLength("имя", strings.TrimSpace(name), MinNameLength, MaxNameLength)
}

// ValidateUni проверяет название вуза. Поле необязательное.
func ValidateUni(uni string) error {
	return ValidateLength("вуз", strings.TrimSpace(uni), 0, MaxUniLength)
}
