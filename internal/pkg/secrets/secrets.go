/*
 * Copyright 2024 The Langstack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	Alphanumerics = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Symbols that are safe to embed in YAML values and shell-quoted strings
	PasswordSymbols = "!#$%()+,-./:?@[\\]^_{}~"

	saltLength      = 32
	jwtSecretLength = 64

	// admin passwords are built from three segments so the character class
	// requirements hold by construction
	passwordAlphaLength  = 12
	passwordSymbolLength = 3
	passwordMixedLength  = 4
)

// Bundle holds the secret material shared by both components. It's generated
// at most once per run and never persisted.
type Bundle struct {
	APIKeySalt    string
	JWTSecret     string
	AdminPassword string
}

// Error returned when the system random source can't be read. Installation
// can't proceed without valid credentials so callers treat this as fatal.
type GenerationError struct {
	Err error
}

func (e GenerationError) Error() string {
	return fmt.Sprintf("Failed to read from the system random source: %v", e.Err)
}

func (e GenerationError) Cause() error {
	return e.Err
}

// Generate returns a fresh bundle of independently random secrets
func Generate() (*Bundle, error) {
	salt, err := randomString(saltLength, Alphanumerics)
	if err != nil {
		return nil, GenerationError{Err: err}
	}

	jwtSecret, err := randomString(jwtSecretLength, Alphanumerics)
	if err != nil {
		return nil, GenerationError{Err: err}
	}

	password, err := generatePassword()
	if err != nil {
		return nil, GenerationError{Err: err}
	}

	return &Bundle{
		APIKeySalt:    salt,
		JWTSecret:     jwtSecret,
		AdminPassword: password,
	}, nil
}

// Builds a password as three concatenated segments: a 12-character
// alphanumeric block, a 3-character block from the symbol set and a
// 4-character mixed block.
func generatePassword() (string, error) {
	alpha, err := randomString(passwordAlphaLength, Alphanumerics)
	if err != nil {
		return "", err
	}

	symbols, err := randomString(passwordSymbolLength, PasswordSymbols)
	if err != nil {
		return "", err
	}

	mixed, err := randomString(passwordMixedLength, Alphanumerics+PasswordSymbols)
	if err != nil {
		return "", err
	}

	return alpha + symbols + mixed, nil
}

// Returns a random string of the given length drawn uniformly from the
// charset. crypto/rand.Int avoids the modulo bias of masking raw bytes.
func randomString(length int, charset string) (string, error) {
	max := big.NewInt(int64(len(charset)))

	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}

	return string(out), nil
}
