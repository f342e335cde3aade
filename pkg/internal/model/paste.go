// Package model 定义持久化到描述符索引中的数据结构.
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/yeisme/pastevault/pkg/configs"
)

// PasteType 粘贴类型，封闭枚举.
type PasteType int

const (
	// PasteTypePaste 普通文本或文件，直接代理返回.
	PasteTypePaste PasteType = iota
	// PasteTypeLink 内容为 URL，读取时重定向.
	PasteTypeLink
	// PasteTypeLargePaste 通过预签名 PUT 上传的大文件.
	PasteTypeLargePaste
)

// LinkMimeType 链接类型粘贴强制使用的 MIME 标记.
const LinkMimeType = "text/x-uri"

var pasteTypeNames = [...]string{
	PasteTypePaste:      "paste",
	PasteTypeLink:       "link",
	PasteTypeLargePaste: "large_paste",
}

// String 返回稳定的序列化名称.
func (t PasteType) String() string {
	if t < 0 || int(t) >= len(pasteTypeNames) {
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}

	return pasteTypeNames[t]
}

// Valid 是否为已知类型.
func (t PasteType) Valid() bool {
	return t >= PasteTypePaste && t <= PasteTypeLargePaste
}

// ParsePasteType 解析名称或历史整数值.
func ParsePasteType(s string) (PasteType, error) {
	for i, name := range pasteTypeNames {
		if s == name {
			return PasteType(i), nil
		}
	}

	if n, err := strconv.Atoi(s); err == nil && PasteType(n).Valid() {
		return PasteType(n), nil
	}

	return PasteTypePaste, fmt.Errorf("unknown paste type %q", s)
}

// MarshalJSON 总是写出字符串形式.
func (t PasteType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid paste type %d", int(t))
	}

	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON 同时接受 "paste"/"link"/"large_paste" 与历史整数 0/1/2，null 视为 paste.
func (t *PasteType) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = PasteTypePaste
		return nil
	}

	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("paste type: %w", err)
		}

		v, err := ParsePasteType(s)
		if err != nil {
			return err
		}

		*t = v

		return nil
	}

	n, err := strconv.Atoi(string(b))
	if err != nil || !PasteType(n).Valid() {
		return fmt.Errorf("unknown paste type %s", b)
	}

	*t = PasteType(n)

	return nil
}

// UploadTrack 大文件上传未完成时的跟踪信息.
type UploadTrack struct {
	Pending bool `json:"pending"`
	// SavedExpiredAt 完成后应使用的过期时间，为空时按默认保留期计算
	SavedExpiredAt *time.Time `json:"saved_expired_at,omitempty"`
}

// PasteDescriptor 每个粘贴一条的描述符记录.
// 所有字段在读取时都允许缺失，缺失即零值.
type PasteDescriptor struct {
	UUID      string    `json:"uuid"`
	PasteType PasteType `json:"paste_type"`
	Title     string    `json:"title,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	FileSize  int64     `json:"file_size"`
	FileHash  string    `json:"file_hash,omitempty"`

	PasswordFingerprint string `json:"password_fingerprint,omitempty"`

	AccessCount    int64 `json:"access_count"`
	MaxAccessCount int64 `json:"max_access_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiredAt time.Time `json:"expired_at"`

	StorageLocation string       `json:"storage_location,omitempty"`
	UploadTrack     *UploadTrack `json:"upload_track,omitempty"`

	CachedPresignedURL          string     `json:"cached_presigned_url,omitempty"`
	CachedPresignedURLExpiresAt *time.Time `json:"cached_presigned_url_expires_at,omitempty"`
}

// Clone 返回浅拷贝，指针字段单独复制.
func (d *PasteDescriptor) Clone() *PasteDescriptor {
	c := *d

	if d.UploadTrack != nil {
		ut := *d.UploadTrack
		if ut.SavedExpiredAt != nil {
			at := *ut.SavedExpiredAt
			ut.SavedExpiredAt = &at
		}

		c.UploadTrack = &ut
	}

	if d.CachedPresignedURLExpiresAt != nil {
		at := *d.CachedPresignedURLExpiresAt
		c.CachedPresignedURLExpiresAt = &at
	}

	return &c
}

// HasPassword 是否设置了密码.
func (d *PasteDescriptor) HasPassword() bool {
	return d.PasswordFingerprint != ""
}

// IsPending 大文件上传是否未完成.
func (d *PasteDescriptor) IsPending() bool {
	return d.UploadTrack != nil && d.UploadTrack.Pending
}

// IsExhausted 访问次数是否已用尽，max_access_count 为 0 表示不限制.
func (d *PasteDescriptor) IsExhausted() bool {
	return d.MaxAccessCount > 0 && d.AccessCount >= d.MaxAccessCount
}

// IsExpired 在 now 时刻是否已过期，零值 expired_at 视为未过期.
func (d *PasteDescriptor) IsExpired(now time.Time) bool {
	return !d.ExpiredAt.IsZero() && !now.Before(d.ExpiredAt)
}

// Location 返回存储位置名称，缺失时按类型取默认值.
func (d *PasteDescriptor) Location() string {
	if d.StorageLocation != "" {
		return d.StorageLocation
	}

	if d.PasteType == PasteTypeLargePaste {
		return configs.LocationLarge
	}

	return configs.LocationDefault
}

// ObjectKey 对象存储中的键，与标识符一致.
func (d *PasteDescriptor) ObjectKey() string {
	return d.UUID
}

// ClearPresignCache 清除缓存的预签名 URL.
func (d *PasteDescriptor) ClearPresignCache() {
	d.CachedPresignedURL = ""
	d.CachedPresignedURLExpiresAt = nil
}
