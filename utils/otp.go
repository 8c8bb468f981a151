package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

const (
	OTPLength = 6
	OTPExpiry = 15 * time.Minute
)

var ErrOTPInvalid = errors.New("invalid or expired verification code")

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

func SaveOTP(userID uint, otp string) error {
	return config.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"otp":            otp,
			"otp_expires_at": time.Now().Add(OTPExpiry),
			"otp_verified":   false,
		}).Error
}

func VerifyOTP(userID uint, otp string) error {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		return err
	}

	if user.OTP == "" || user.OTP != otp || time.Now().After(user.OTPExpiresAt) {
		return ErrOTPInvalid
	}

	return config.DB.Model(&user).Updates(map[string]interface{}{
		"otp":          "",
		"otp_verified": true,
	}).Error
}
