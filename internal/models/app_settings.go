package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SettingDefinition describes a configurable application setting.
type SettingDefinition struct {
	Key       string // DB key, e.g. "llm.provider"
	EnvVar    string // Override env var, e.g. "PACECOACH_LLM_PROVIDER"
	Default   string // Built-in default value
	Sensitive bool   // If true, value is encrypted in DB
}

// SettingsRegistry defines all known application settings.
var SettingsRegistry = []SettingDefinition{
	{Key: "llm.provider", EnvVar: "PACECOACH_LLM_PROVIDER", Default: ""},
	{Key: "llm.model", EnvVar: "PACECOACH_LLM_MODEL", Default: ""},
	{Key: "llm.api_key", EnvVar: "PACECOACH_LLM_API_KEY", Default: "", Sensitive: true},
	{Key: "llm.base_url", EnvVar: "PACECOACH_LLM_BASE_URL", Default: ""},
	{Key: "llm.temperature", EnvVar: "PACECOACH_LLM_TEMPERATURE", Default: "0.7"},
	{Key: "llm.max_tokens", EnvVar: "PACECOACH_LLM_MAX_TOKENS", Default: "1024"},
}

// GetSetting returns a configuration value using the resolution chain:
// env var → app_settings row → built-in default.
func GetSetting(db *sql.DB, key string) string {
	def := findDefinition(key)
	if def == nil {
		return ""
	}

	// 1. Environment variable always wins.
	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			return v
		}
	}

	// 2. Database setting.
	var raw string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&raw)
	if err == nil {
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err == nil {
				return decrypted
			}
			// Fall through to default if decryption fails.
		} else {
			return raw
		}
	}

	// 3. Built-in default.
	return def.Default
}

// SetSetting stores a configuration value in the database.
// Sensitive values are encrypted if PACECOACH_SECRET_KEY is set.
func SetSetting(db *sql.DB, key, value string) error {
	def := findDefinition(key)
	if def == nil {
		return fmt.Errorf("models: unknown setting key %q", key)
	}

	storeValue := value
	if def.Sensitive && value != "" && os.Getenv("PACECOACH_SECRET_KEY") != "" {
		encrypted, err := encryptValue(value)
		if err != nil {
			return fmt.Errorf("models: encrypt setting %q: %w", key, err)
		}
		storeValue = "enc:" + encrypted
	}

	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, storeValue,
	)
	if err != nil {
		return fmt.Errorf("models: set setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting from the database (reverts to env var or default).
func DeleteSetting(db *sql.DB, key string) error {
	_, err := db.Exec(`DELETE FROM app_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("models: delete setting %q: %w", key, err)
	}
	return nil
}

// IsAICoachConfigured returns true if an LLM provider is configured.
func IsAICoachConfigured(db *sql.DB) bool {
	return GetSetting(db, "llm.provider") != ""
}

// GetSettingInt returns a numeric setting, falling back to the given default
// when the stored value is missing or unparseable.
func GetSettingInt(db *sql.DB, key string, fallback int) int {
	if v := GetSetting(db, key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func findDefinition(key string) *SettingDefinition {
	for i := range SettingsRegistry {
		if SettingsRegistry[i].Key == key {
			return &SettingsRegistry[i]
		}
	}
	return nil
}

// --- Encryption helpers ---

// secretKey returns the 32-byte encryption key derived from
// PACECOACH_SECRET_KEY using HKDF (RFC 5869). Returns nil if the env var is
// not set.
func secretKey() []byte {
	key := os.Getenv("PACECOACH_SECRET_KEY")
	if key == "" {
		return nil
	}
	h := hkdf.New(sha256.New, []byte(key), []byte("pacecoach-settings-v1"), []byte("aes-256-gcm"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(h, derived); err != nil {
		return nil
	}
	return derived
}

func encryptValue(plaintext string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("PACECOACH_SECRET_KEY not set — cannot encrypt sensitive settings")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decryptValue(encoded string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("PACECOACH_SECRET_KEY not set — cannot decrypt")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
