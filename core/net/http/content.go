package http

import "net/http"

// 常用 Content-Type
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeXML  = "application/xml"
	ContentTypeText = "text/plain"
)

const (
	MethodGet  = http.MethodGet
	MethodPost = http.MethodPost
)
