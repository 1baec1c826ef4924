package models

type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	QRCode      string `json:"qrCode"`
	Issuer      string `json:"issuer"`
	AccountName string `json:"accountName"`
}

type TOTPCodeRequest struct {
	Code string `json:"code"`
}

// TOTPVerifyRequest completes a login that returned requires2fa.
type TOTPVerifyRequest struct {
	TempToken string `json:"tempToken"`
	Code      string `json:"code"`
}

type TOTPDisableRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}
