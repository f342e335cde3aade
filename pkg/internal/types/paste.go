// Package types 定义 HTTP 接口的请求与响应结构.
package types

import "time"

// CreatePasteRequest 创建粘贴的选项，来自表单字段或查询参数.
type CreatePasteRequest struct {
	// Type paste 或 link，默认 paste
	Type           string `form:"type"             rule:"omitempty,oneof=paste link"`
	Title          string `form:"title"            rule:"max=255"`
	MimeType       string `form:"mime_type"        rule:"omitempty,max=255,mimetype"`
	Password       string `form:"password"`
	MaxAccessCount int64  `form:"max_access_count" rule:"min=0"`
	Location       string `form:"location"         rule:"omitempty,max=64"`
	// Expire 秒数或 Go duration（例如 24h），为空使用默认保留期
	Expire string `form:"expire" rule:"omitempty,expire"`
}

// CreateLargeRequest 大文件上传握手请求.
type CreateLargeRequest struct {
	Size           int64  `json:"size"             rule:"gt=0"`
	SHA256         string `json:"sha256"           rule:"required,sha256hex"`
	Title          string `json:"title"            rule:"max=255"`
	MimeType       string `json:"mime_type"        rule:"omitempty,max=255,mimetype"`
	Password       string `json:"password"`
	MaxAccessCount int64  `json:"max_access_count" rule:"min=0"`
	Location       string `json:"location"         rule:"omitempty,max=64"`
	Expire         string `json:"expire"           rule:"omitempty,expire"`
}

// LargeUploadResponse 客户端直传所需的信息.
type LargeUploadResponse struct {
	Paste     PasteInfo         `json:"paste"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
	// CompleteURL 上传结束后调用
	CompleteURL string `json:"complete_url"`
}

// UpdatePasteRequest 部分更新，缺省字段保持不变.
type UpdatePasteRequest struct {
	// Password 空字符串表示清除密码
	Password       *string    `json:"password"`
	MaxAccessCount *int64     `json:"max_access_count" rule:"omitempty,min=0"`
	Title          *string    `json:"title"            rule:"omitempty,max=255"`
	MimeType       *string    `json:"mime_type"        rule:"omitempty,max=255,mimetype"`
	ExpiredAt      *time.Time `json:"expired_at"`
}

// PasteInfo 对外公开的描述符视图，不包含密码指纹与缓存的预签名 URL.
type PasteInfo struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title,omitempty"`
	MimeType       string    `json:"mime_type,omitempty"`
	Size           int64     `json:"size"`
	SHA256         string    `json:"sha256,omitempty"`
	HasPassword    bool      `json:"has_password"`
	AccessCount    int64     `json:"access_count"`
	MaxAccessCount int64     `json:"max_access_count"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiredAt      time.Time `json:"expired_at"`
	Location       string    `json:"location"`
	Pending        bool      `json:"pending"`
	URL            string    `json:"url,omitempty"`
}

// LocationInfo 存储位置的公开限制.
type LocationInfo struct {
	Name        string `json:"name"`
	MaxFileSize int64  `json:"max_file_size"`
	// MaxTTL 秒，0 表示不限制
	MaxTTL int64 `json:"max_ttl"`
}

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
