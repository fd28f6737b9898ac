// Package validate 手机号、PAN、IFSC、GSTIN、密码等校验规则的唯一来源。
// 服务端以此为准；注册到 gin 的 binding 引擎后可直接写在 binding tag 里。
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	reMobile  = regexp.MustCompile(`^[0-9]{10}$`)
	rePAN     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	reIFSC    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	reGSTIN   = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	rePincode = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

const MinPasswordLen = 6

func Mobile(s string) bool  { return reMobile.MatchString(s) }
func PAN(s string) bool     { return rePAN.MatchString(strings.ToUpper(s)) }
func IFSC(s string) bool    { return reIFSC.MatchString(strings.ToUpper(s)) }
func GSTIN(s string) bool   { return reGSTIN.MatchString(strings.ToUpper(s)) }
func Pincode(s string) bool { return rePincode.MatchString(s) }

// Password 最少 6 位且不能全是空白
func Password(s string) bool {
	return len(s) >= MinPasswordLen && strings.TrimSpace(s) != ""
}

// StrongPassword ≥8 位，含大写、小写、数字（卖家账号）
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var up, low, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			up = true
		case unicode.IsLower(r):
			low = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return up && low && digit
}

// Messages tag → 提示文案，供 HTTP 层翻译校验错误
var Messages = map[string]string{
	"mobile":         "must be a 10 digit mobile number",
	"pan":            "must be a valid PAN (ABCDE1234F)",
	"ifsc":           "must be a valid IFSC code",
	"gstin":          "must be a valid GSTIN",
	"pincode":        "must be a valid 6 digit pincode",
	"password":       "must be at least 6 characters",
	"strongpassword": "must be at least 8 characters with upper, lower case letters and a digit",
}

func wrap(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool { return fn(fl.Field().String()) }
}

// Register 把自定义规则挂到 validator 实例上
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"mobile":         Mobile,
		"pan":            PAN,
		"ifsc":           IFSC,
		"gstin":          GSTIN,
		"pincode":        Pincode,
		"password":       Password,
		"strongpassword": StrongPassword,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, wrap(fn)); err != nil {
			return err
		}
	}
	return nil
}
