// Package codevault шифрует коды питания перед записью в базу.
// Открытый текст кода существует только в момент создания объявления
// и в момент выдачи покупателю после одобрения оплаты.
package codevault

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen - длина ключа шифрования в байтах.
const KeyLen = chacha20poly1305.KeySize

// ErrInvalidCiphertext возвращается, когда шифртекст повреждён или
// зашифрован другим ключом. Никогда не подавляется молча: потеря кода -
// фатальная для операции ситуация.
var ErrInvalidCiphertext = errors.New("codevault: шифртекст невалиден")

// Vault - AEAD-хранилище кодов на XChaCha20-Poly1305.
// Формат шифртекста: nonce || sealed.
type Vault struct {
	key []byte
}

// New создаёт хранилище с заданным ключом. Ключ должен содержать ровно
// KeyLen байт; nil означает сгенерировать эфемерный ключ (development).
func New(key []byte) (*Vault, error) {
	if key == nil {
		generated, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		key = generated
	}
	if len(key) != KeyLen {
		return nil, fmt.Errorf("codevault: ожидается ключ %d байт, получено %d", KeyLen, len(key))
	}
	return &Vault{key: key}, nil
}

// GenerateKey возвращает новый случайный ключ.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("codevault: не удалось сгенерировать ключ: %w", err)
	}
	return key, nil
}

// Encrypt шифрует код со случайным nonce.
func (v *Vault) Encrypt(code string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("codevault: не удалось сгенерировать nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(code)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(code), nil)...)
	return out, nil
}

// Decrypt расшифровывает код.
func (v *Vault) Decrypt(token []byte) (string, error) {
	if len(token) < chacha20poly1305.NonceSizeX {
		return "", ErrInvalidCiphertext
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	nonce := token[:chacha20poly1305.NonceSizeX]
	ct := token[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}
