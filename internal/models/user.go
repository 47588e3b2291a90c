package models

import (
	"github.com/abhishyantkhare/marathon-trainer/internal/crypto"
	"gorm.io/gorm"
)

var encryptor *crypto.Encryptor

// InitEncryption initializes the token encryptor for the models package.
// Must be called before any database operations involving User Strava tokens.
func InitEncryption(encryptionKey string) error {
	var err error
	encryptor, err = crypto.NewEncryptor(encryptionKey)
	return err
}

// User represents an athlete authenticated through Strava OAuth.
// Strava tokens are encrypted at rest via the BeforeSave/AfterFind hooks.
type User struct {
	gorm.Model
	StravaID             int64  `gorm:"uniqueIndex:idx_users_strava_id_not_deleted,where:deleted_at IS NULL;not null"`
	Email                string `gorm:"index"`
	Name                 string `gorm:"not null;default:''"`
	ProfilePicture       string `gorm:"type:text"`
	StravaAccessToken    string `gorm:"type:text"` // stored encrypted
	StravaRefreshToken   string `gorm:"type:text"` // stored encrypted
	StravaTokenExpiresAt int64  // unix epoch seconds, matches Strava's expires_at

	// Associations
	Profile       *Profile       `gorm:"constraint:OnDelete:CASCADE;"`
	TrainingPlans []TrainingPlan `gorm:"constraint:OnDelete:CASCADE;"`
	Runs          []Run          `gorm:"constraint:OnDelete:CASCADE;"`
}

// StravaConnected reports whether the user still has a usable token pair.
func (u *User) StravaConnected() bool {
	return u.StravaAccessToken != "" && u.StravaRefreshToken != ""
}

// BeforeSave encrypts Strava tokens before saving to database.
// Always encrypts non-empty tokens (GCM produces different output each time
// due to random nonce).
func (u *User) BeforeSave(tx *gorm.DB) error {
	if encryptor == nil {
		// Allow operations without encryption (e.g., for testing or if encryption not initialized)
		return nil
	}

	if u.StravaAccessToken != "" {
		encrypted, err := encryptor.Encrypt(u.StravaAccessToken)
		if err != nil {
			return err
		}
		u.StravaAccessToken = encrypted
	}

	if u.StravaRefreshToken != "" {
		encrypted, err := encryptor.Encrypt(u.StravaRefreshToken)
		if err != nil {
			return err
		}
		u.StravaRefreshToken = encrypted
	}

	return nil
}

// AfterSave decrypts the tokens back after the row is written. BeforeSave
// mutates the struct in place, and callers keep using it (the sync path
// refreshes a token, saves it, then sends it to Strava).
func (u *User) AfterSave(tx *gorm.DB) error {
	return u.AfterFind(tx)
}

// AfterFind decrypts Strava tokens after loading from database
func (u *User) AfterFind(tx *gorm.DB) error {
	if encryptor == nil {
		// Allow operations without encryption
		return nil
	}

	if u.StravaAccessToken != "" {
		decrypted, err := encryptor.Decrypt(u.StravaAccessToken)
		if err != nil {
			return err
		}
		u.StravaAccessToken = decrypted
	}

	if u.StravaRefreshToken != "" {
		decrypted, err := encryptor.Decrypt(u.StravaRefreshToken)
		if err != nil {
			return err
		}
		u.StravaRefreshToken = decrypted
	}

	return nil
}
