package model

// LoginResult is what a password login produced. When MFARequired is true the
// token is held as pending and is not persisted until the code is verified.
type LoginResult struct {
	User        User
	MFARequired bool
}

// MFASetup holds the enrolment material returned by the API.
type MFASetup struct {
	Secret        string   `json:"secret"`
	QRCodeDataURL string   `json:"qrCodeDataURL"`
	BackupCodes   []string `json:"backupCodes"`
}

// Registration is the API's answer to a sign-up.
type Registration struct {
	Message string `json:"message"`
	UserID  int    `json:"userId"`
}
