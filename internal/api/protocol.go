package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/John-Robertt/culler/internal/config"
	"github.com/John-Robertt/culler/internal/domain"
)

const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnknownMethod = "unknown_method"
	ErrCodeInternal      = "internal"
)

// maxLineBytes 限制单条请求的大小（group 列表可能很大）。
const maxLineBytes = 64 << 20

// Request 是一行 JSON 请求。
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response 是一行 JSON 响应。
//
// 批量操作部分失败时 Result（BatchReport）与 Error 同时存在：调用方既能展示成功项，也能展示失败原因。
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type pathParams struct {
	Path string `json:"path"`
}

type pathsParams struct {
	Paths []string `json:"paths"`
}

type groupsParams struct {
	Groups []domain.PhotoGroup `json:"groups"`
}

type exportParams struct {
	Groups            []domain.PhotoGroup `json:"groups"`
	ExportMode        domain.ExportMode   `json:"exportMode"`
	Operation         domain.Operation    `json:"operation"`
	DestinationFolder string              `json:"destinationFolder"`
}

type mergeParams struct {
	Existing []domain.PhotoGroup `json:"existing"`
	Incoming []domain.PhotoGroup `json:"incoming"`
}

// Handle 分发一条请求。方法名：
// readMetadata、scanDirectory、scanFiles、trashGroups、exportGroups、stats、merge。
func (s *Service) Handle(req Request) Response {
	resp := Response{ID: req.ID}

	var (
		result any
		err    error
	)
	switch req.Method {
	case "readMetadata":
		var p pathParams
		if err = decodeParams(req.Params, &p); err == nil {
			result, err = s.ReadMetadata(p.Path)
		}
	case "scanDirectory":
		var p pathParams
		if err = decodeParams(req.Params, &p); err == nil {
			result, err = s.ScanDirectory(p.Path)
		}
	case "scanFiles":
		var p pathsParams
		if err = decodeParams(req.Params, &p); err == nil {
			result = s.ScanFiles(p.Paths)
		}
	case "trashGroups":
		var p groupsParams
		if err = decodeParams(req.Params, &p); err == nil {
			result, err = s.TrashGroups(p.Groups)
		}
	case "exportGroups":
		var p exportParams
		if err = decodeParams(req.Params, &p); err == nil {
			var rep domain.BatchReport
			rep, err = s.ExportGroups(p.Groups, p.ExportMode, p.Operation, p.DestinationFolder)
			if rep.ID != "" {
				result = rep
			}
		}
	case "stats":
		var p groupsParams
		if err = decodeParams(req.Params, &p); err == nil {
			result = s.Stats(p.Groups)
		}
	case "merge":
		var p mergeParams
		if err = decodeParams(req.Params, &p); err == nil {
			result = s.Merge(p.Existing, p.Incoming)
		}
	default:
		resp.Error = &ErrorBody{Code: ErrCodeUnknownMethod, Message: fmt.Sprintf("未知方法：%q", req.Method)}
		return resp
	}

	if err != nil {
		resp.Error = ErrorOf(err)
		if _, ok := result.(domain.BatchReport); !ok {
			result = nil
		}
	}
	resp.Result = result
	return resp
}

// Serve 逐行读取请求并逐行写出响应，直到 r 结束。
// 无法解析的行返回 bad_request 响应，不中断会话。
func (s *Service) Serve(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp = Response{Error: &ErrorBody{Code: ErrCodeBadRequest, Message: fmt.Sprintf("请求不是合法 JSON：%v", err)}}
		} else {
			resp = s.Handle(req)
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return sc.Err()
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return fmt.Sprintf("参数无效：%v", e.err) }
func (e *badRequestError) Unwrap() error { return e.err }

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &badRequestError{err: err}
	}
	return nil
}

// ErrorOf 把 error 映射为稳定的 {code, message}；部分失败时附带每个失败项的文本。
func ErrorOf(err error) *ErrorBody {
	body := &ErrorBody{Code: domain.Code(err), Message: err.Error()}

	var br *badRequestError
	var ae *domain.AggregateError
	switch {
	case errors.As(err, &br):
		body.Code = ErrCodeBadRequest
	case errors.As(err, &ae):
		body.Details = ae.Messages()
	}
	if body.Code == "" {
		if c := config.Code(err); c != "" {
			body.Code = c
		} else {
			body.Code = ErrCodeInternal
		}
	}
	return body
}
