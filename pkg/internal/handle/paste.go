package handle

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/internal/types"
	"github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/rule"
)

// bodyLimit 普通创建接口的请求体上限，预留 multipart 开销.
func (h *PasteHandlers) bodyLimit() int64 {
	if h.server.MaxBodySize > 0 {
		return h.server.MaxBodySize
	}

	const multipartOverhead = 1 << 20

	return h.svc.Config().InlineMaxSize + multipartOverhead
}

// Create 创建普通粘贴或链接.
//
// 内容来源：multipart 的 file 字段或 content 字段、表单 content 字段，否则为原始请求体.
// 选项来自表单字段或查询参数.
//
//	@Summary		创建粘贴或链接
//	@Tags			粘贴
//	@Accept			mpfd,x-www-form-urlencoded,plain
//	@Produce		json,plain
//	@Param			type				query		string	false	"类型"	Enums(paste, link)
//	@Param			expire				query		string	false	"保留期，秒数或 24h 形式"
//	@Param			max_access_count	query		int		false	"最大访问次数，0 不限制"
//	@Success		201					{object}	types.PasteInfo
//	@Failure		400					{object}	types.ErrorResponse
//	@Failure		413					{object}	types.ErrorResponse
//	@Router			/api/v1/pastes [post]
func (h *PasteHandlers) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit())

	ct := c.ContentType()

	// 非 multipart 请求先整体读入，表单解析后仍可作为原始内容使用
	var raw []byte
	if ct != binding.MIMEMultipartPOSTForm {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			renderError(c, err)
			return
		}

		raw = data
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	}

	var (
		req types.CreatePasteRequest
		err error
	)

	if ct == binding.MIMEMultipartPOSTForm || ct == binding.MIMEPOSTForm {
		err = c.ShouldBindWith(&req, binding.Form)
	} else {
		err = c.ShouldBindQuery(&req)
	}

	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			renderError(c, err)
			return
		}

		badRequest(c, err)

		return
	}

	expire, err := rule.ParseExpire(req.Expire)
	if err != nil {
		badRequest(c, err)
		return
	}

	in := service.CreatePasteInput{
		PasteType:      model.PasteTypePaste,
		Title:          req.Title,
		MimeType:       req.MimeType,
		Password:       req.Password,
		MaxAccessCount: req.MaxAccessCount,
		Location:       req.Location,
		Expire:         expire,
	}

	if req.Type == model.PasteTypeLink.String() {
		in.PasteType = model.PasteTypeLink
	}

	closer, err := readContent(c, raw, &in)
	if err != nil {
		renderError(c, err)
		return
	}

	if closer != nil {
		defer closer.Close()
	}

	d, err := h.svc.CreatePaste(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}

	url := h.shareURL(c, d.UUID)

	l := log.Logger()
	l.Info().
		Str("id", d.UUID).
		Str("type", d.PasteType.String()).
		Int64("size", d.FileSize).
		Str("location", d.Location()).
		Msg("paste created")

	c.Header("Location", url)

	if c.NegotiateFormat(binding.MIMEJSON, binding.MIMEPlain) == binding.MIMEPlain {
		c.String(http.StatusCreated, url+"\n")
		return
	}

	c.JSON(http.StatusCreated, toInfo(d, url))
}

// readContent 填充内容与大小. multipart 文件需要调用方关闭.
// 表单请求没有 content 字段时，整个请求体作为内容.
func readContent(c *gin.Context, raw []byte, in *service.CreatePasteInput) (io.Closer, error) {
	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		if fh, err := c.FormFile("file"); err == nil {
			return openUpload(fh, in)
		}

		content := c.PostForm("content")
		in.Content = strings.NewReader(content)
		in.Size = int64(len(content))

		return nil, nil
	case binding.MIMEPOSTForm:
		if content, ok := c.GetPostForm("content"); ok {
			in.Content = strings.NewReader(content)
			in.Size = int64(len(content))

			return nil, nil
		}
	default:
		if ct := c.ContentType(); ct != "" && in.MimeType == "" && in.PasteType == model.PasteTypePaste {
			in.MimeType = ct
		}
	}

	in.Content = bytes.NewReader(raw)
	in.Size = int64(len(raw))

	return nil, nil
}

// openUpload 文件名与类型作为缺省的标题与 MIME.
func openUpload(fh *multipart.FileHeader, in *service.CreatePasteInput) (io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}

	in.Content = f
	in.Size = fh.Size

	if in.Title == "" {
		in.Title = fh.Filename
	}

	if in.MimeType == "" && in.PasteType == model.PasteTypePaste {
		in.MimeType = fh.Header.Get("Content-Type")
	}

	return f, nil
}

// CreateLarge 大文件上传握手，返回预签名 PUT.
//
//	@Summary	大文件上传握手
//	@Tags		粘贴
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.CreateLargeRequest	true	"上传参数"
//	@Success	201		{object}	types.LargeUploadResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Router		/api/v1/pastes/large [post]
func (h *PasteHandlers) CreateLarge(c *gin.Context) {
	var req types.CreateLargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expire, err := rule.ParseExpire(req.Expire)
	if err != nil {
		badRequest(c, err)
		return
	}

	ticket, err := h.svc.CreateLargePasteUpload(c.Request.Context(), service.CreateLargeInput{
		Size:           req.Size,
		SHA256:         strings.ToLower(req.SHA256),
		Title:          req.Title,
		MimeType:       req.MimeType,
		Password:       req.Password,
		MaxAccessCount: req.MaxAccessCount,
		Location:       req.Location,
		Expire:         expire,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	id := ticket.Descriptor.UUID
	headers := make(map[string]string, len(ticket.Headers))

	for k := range ticket.Headers {
		headers[k] = ticket.Headers.Get(k)
	}

	c.JSON(http.StatusCreated, types.LargeUploadResponse{
		Paste:       toInfo(ticket.Descriptor, h.shareURL(c, id)),
		Method:      ticket.Method,
		URL:         ticket.URL,
		Headers:     headers,
		ExpiresAt:   ticket.ExpiresAt,
		CompleteURL: h.baseURL(c) + "/api/v1/pastes/" + id + "/complete",
	})
}

// Complete 结束大文件上传.
//
//	@Summary	结束大文件上传
//	@Tags		粘贴
//	@Produce	json
//	@Param		id	path		string	true	"粘贴 ID"
//	@Success	200	{object}	types.PasteInfo
//	@Failure	400	{object}	types.ErrorResponse
//	@Failure	409	{object}	types.ErrorResponse
//	@Router		/api/v1/pastes/{id}/complete [post]
func (h *PasteHandlers) Complete(c *gin.Context) {
	id := c.Param("id")

	d, err := h.svc.CompletePendingUpload(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInfo(d, h.shareURL(c, id)))
}

// Info 公开元数据，不消耗访问次数.
//
//	@Summary	粘贴元数据
//	@Tags		粘贴
//	@Produce	json
//	@Param		id	path		string	true	"粘贴 ID"
//	@Success	200	{object}	types.PasteInfo
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/pastes/{id} [get]
func (h *PasteHandlers) Info(c *gin.Context) {
	id := c.Param("id")

	d, err := h.svc.Info(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInfo(d, h.shareURL(c, id)))
}

// Update 部分更新元数据，有密码时需要提供.
//
//	@Summary	更新元数据
//	@Tags		粘贴
//	@Accept		json
//	@Produce	json
//	@Param		id					path		string						true	"粘贴 ID"
//	@Param		X-Paste-Password	header		string						false	"访问密码"
//	@Param		body				body		types.UpdatePasteRequest	true	"需要修改的字段"
//	@Success	200					{object}	types.PasteInfo
//	@Failure	401					{object}	types.ErrorResponse
//	@Router		/api/v1/pastes/{id} [patch]
func (h *PasteHandlers) Update(c *gin.Context) {
	var req types.UpdatePasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := service.MetadataPatch{
		Password:       req.Password,
		MaxAccessCount: req.MaxAccessCount,
		Title:          req.Title,
		MimeType:       req.MimeType,
		ExpiredAt:      req.ExpiredAt,
	}
	if patch.Empty() {
		badRequest(c, errors.New("no fields to update"))
		return
	}

	id := c.Param("id")

	d, err := h.svc.UpdateMetadata(c.Request.Context(), id, credentials(c), patch)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInfo(d, h.shareURL(c, id)))
}

// Delete 删除粘贴及其对象.
//
//	@Summary	删除粘贴
//	@Tags		粘贴
//	@Param		id					path	string	true	"粘贴 ID"
//	@Param		X-Paste-Password	header	string	false	"访问密码"
//	@Success	204
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/api/v1/pastes/{id} [delete]
func (h *PasteHandlers) Delete(c *gin.Context) {
	if err := h.svc.DeletePaste(c.Request.Context(), c.Param("id"), credentials(c)); err != nil {
		renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
