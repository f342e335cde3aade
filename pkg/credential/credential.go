// Package credential 处理粘贴密码：格式校验、指纹生成与比对.
//
// 默认方案 sha256-16 取 sha256 十六进制摘要的前 16 个字符，与既有描述符兼容.
// 可选方案 bcrypt 生成加盐哈希；以 "$2" 开头的指纹无论当前方案如何都按 bcrypt 校验.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/yeisme/pastevault/pkg/rule"
)

const (
	// SchemeSHA256 截断 sha256.
	SchemeSHA256 = "sha256-16"
	// SchemeBcrypt bcrypt 加盐哈希.
	SchemeBcrypt = "bcrypt"

	// FingerprintLength sha256-16 指纹长度.
	FingerprintLength = 16
	// DefaultMaxLength 默认密码最大长度.
	DefaultMaxLength = 64

	bcryptPrefix = "$2"
	// bcrypt 只使用前 72 字节.
	bcryptMaxInput = 72
)

var (
	// ErrEmpty 密码为空.
	ErrEmpty = errors.New("password must not be empty")
	// ErrFormat 密码包含非字母数字字符.
	ErrFormat = errors.New("password must match ^[A-Za-z0-9]+$")
	// ErrTooLong 密码超过最大长度.
	ErrTooLong = errors.New("password too long")
)

// Hasher 密码指纹生成器.
type Hasher struct {
	scheme    string
	maxLength int
	cost      int
}

// New 创建 Hasher. scheme 为空使用 sha256-16，maxLength<=0 使用默认值.
func New(scheme string, maxLength int) (*Hasher, error) {
	switch scheme {
	case "":
		scheme = SchemeSHA256
	case SchemeSHA256, SchemeBcrypt:
	default:
		return nil, fmt.Errorf("unsupported password scheme: %s", scheme)
	}

	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if scheme == SchemeBcrypt && maxLength > bcryptMaxInput {
		maxLength = bcryptMaxInput
	}

	return &Hasher{scheme: scheme, maxLength: maxLength, cost: bcrypt.DefaultCost}, nil
}

// Scheme 返回当前方案.
func (h *Hasher) Scheme() string { return h.scheme }

// Validate 校验明文密码：非空、只含 ASCII 字母数字、不超过最大长度.
func (h *Hasher) Validate(plain string) error {
	if plain == "" {
		return ErrEmpty
	}

	if len(plain) > h.maxLength {
		return fmt.Errorf("%w: max %d characters", ErrTooLong, h.maxLength)
	}

	// validator 的 alphanum 只接受 ASCII 字母数字
	if err := rule.ValidateVar(plain, "alphanum"); err != nil {
		return ErrFormat
	}

	return nil
}

// Fingerprint 计算指纹. 调用方应先 Validate.
func (h *Hasher) Fingerprint(plain string) (string, error) {
	if h.scheme == SchemeBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt password: %w", err)
		}

		return string(b), nil
	}

	return SHA256Fingerprint(plain), nil
}

// Verify 比对明文与已存储指纹，空指纹表示无密码并总是返回 false.
func (h *Hasher) Verify(plain, fingerprint string) bool {
	if fingerprint == "" || plain == "" {
		return false
	}

	if strings.HasPrefix(fingerprint, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(fingerprint), []byte(plain)) == nil
	}

	got := SHA256Fingerprint(plain)

	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(fingerprint))) == 1
}

// SHA256Fingerprint sha256 十六进制摘要的前 16 个字符.
func SHA256Fingerprint(plain string) string {
	sum := sha256.Sum256([]byte(plain))

	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
