package dto

// ConsoleLoginRequest is posted by the sign-in form.
type ConsoleLoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ConsoleRegisterRequest is posted by the registration form. BirthDate is
// day/month/year as typed by the user.
type ConsoleRegisterRequest struct {
	Name       string `json:"name" form:"name"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	BirthDate  string `json:"birthDate" form:"birthDate"`
	NationalID string `json:"nationalId" form:"nationalId"`
	Role       string `json:"role" form:"role"`
}

// ConsoleEmailRequest is posted by forgot-password, magic-link and
// email-confirmation forms.
type ConsoleEmailRequest struct {
	Email       string `json:"email" form:"email"`
	RedirectURL string `json:"redirectUrl" form:"redirectUrl"`
}

// ConsoleResetRequest is posted by the reset-password form.
type ConsoleResetRequest struct {
	Token       string `json:"token" form:"token"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

// ConsoleTokenRequest is posted by the magic-link landing screen.
type ConsoleTokenRequest struct {
	Token string `json:"token" form:"token"`
}

// PasswordStrengthRequest asks for an advisory score.
type PasswordStrengthRequest struct {
	Password string `json:"password" form:"password"`
}

// PasswordStrengthResponse is the advisory score and label.
type PasswordStrengthResponse struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// SessionStateResponse is the snapshot consumers render.
type SessionStateResponse struct {
	Status        string       `json:"status"`
	Authenticated bool         `json:"authenticated"`
	Loading       bool         `json:"loading"`
	User          *UserPayload `json:"user,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// ScreenResponse describes a rendered screen.
type ScreenResponse struct {
	Screen  string               `json:"screen"`
	Session SessionStateResponse `json:"session"`
}
