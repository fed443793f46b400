package models

import "time"

type CredentialProvider string

const (
	ProviderPassword CredentialProvider = "password"
	ProviderOIDC     CredentialProvider = "oidc"
)

// Credential is the identity provider's own account row. It carries no role.
type Credential struct {
	UID          string             `gorm:"primaryKey;size:36"`
	Email        string             `gorm:"size:255;uniqueIndex:idx_credentials_password_email,where:provider = 'password'"`
	PasswordHash string             `gorm:"size:255"`
	Provider     CredentialProvider `gorm:"size:20;not null"`
	Issuer       string             `gorm:"size:255"`
	Subject      string             `gorm:"size:255;index"`
	DisplayName  string             `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is one signed-in period of an identity. Tokens reference it by ID.
type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	UID       string `gorm:"size:36;index;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
	RevokedAt *time.Time
}
