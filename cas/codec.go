package cas

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"time"

	"github.com/kochabx/sso/core/util/id"
	"github.com/kochabx/sso/directory"
	"github.com/kochabx/sso/errors"
)

// Format 校验响应格式
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeXML  = "application/xml; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"

	casNamespace = "http://www.yale.edu/tp/cas"
)

// negotiate format 参数优先，其次看 Accept；format 不合法时返回 JSON 与 false
func negotiate(format, accept string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON, true
	case "xml":
		return FormatXML, true
	case "":
		accept = strings.ToLower(accept)
		if strings.Contains(accept, "application/xml") || strings.Contains(accept, "text/xml") {
			return FormatXML, true
		}
		return FormatJSON, true
	default:
		return FormatJSON, false
	}
}

// Attribute 释放给应用的账号属性
type Attribute struct {
	Name  string
	Value any
}

// scopeAttributes 按范围列出属性，顺序即输出顺序
func scopeAttributes(a *directory.Account, scopes []string) []Attribute {
	var attrs []Attribute
	seen := make(map[string]bool, len(scopes))
	for _, scope := range scopes {
		if seen[scope] {
			continue
		}
		seen[scope] = true
		switch scope {
		case "basic":
			attrs = append(attrs,
				Attribute{"id", a.ID},
				Attribute{"username", a.Username},
				Attribute{"name", a.Name},
			)
		case "contact":
			attrs = append(attrs,
				Attribute{"email", a.Email},
				Attribute{"mobile", a.Mobile},
			)
		case "organization":
			attrs = append(attrs,
				Attribute{"tenant", a.Tenant},
				Attribute{"admin", a.Admin},
				Attribute{"supervisor", a.Supervisor},
			)
		}
	}
	return attrs
}

type jsonSuccess struct {
	User       string         `json:"user"`
	Attributes map[string]any `json:"attributes"`
}

type jsonFailure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type xmlServiceResponse struct {
	XMLName xml.Name    `xml:"cas:serviceResponse"`
	Xmlns   string      `xml:"xmlns:cas,attr"`
	Success *xmlSuccess `xml:"cas:authenticationSuccess,omitempty"`
	Failure *xmlFailure `xml:"cas:authenticationFailure,omitempty"`
}

type xmlSuccess struct {
	User       string        `xml:"cas:user"`
	Attributes xmlAttributes `xml:"cas:attributes"`
}

type xmlFailure struct {
	Code        string `xml:"code,attr"`
	Description string `xml:",chardata"`
}

type xmlAttributes []Attribute

func (a xmlAttributes) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, attr := range a {
		el := xml.StartElement{Name: xml.Name{Local: "cas:" + attr.Name}}
		if err := e.EncodeElement(attr.Value, el); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func encodeSuccess(f Format, user string, attrs []Attribute) (string, []byte, error) {
	if f == FormatXML {
		body, err := xml.Marshal(xmlServiceResponse{
			Xmlns:   casNamespace,
			Success: &xmlSuccess{User: user, Attributes: attrs},
		})
		return contentTypeXML, body, err
	}
	m := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		m[attr.Name] = attr.Value
	}
	body, err := json.Marshal(jsonSuccess{User: user, Attributes: m})
	return contentTypeJSON, body, err
}

func encodeFailure(f Format, e *errors.Error) (string, []byte) {
	if f == FormatXML {
		body, _ := xml.Marshal(xmlServiceResponse{
			Xmlns:   casNamespace,
			Failure: &xmlFailure{Code: e.Reason, Description: e.Message},
		})
		return contentTypeXML, body
	}
	body, _ := json.Marshal(jsonFailure{Code: e.Reason, Description: e.Message})
	return contentTypeJSON, body
}

// logoutRequest SAML 2.0 注销请求
type logoutRequest struct {
	XMLName      xml.Name `xml:"samlp:LogoutRequest"`
	Samlp        string   `xml:"xmlns:samlp,attr"`
	Saml         string   `xml:"xmlns:saml,attr"`
	ID           string   `xml:"ID,attr"`
	Version      string   `xml:"Version,attr"`
	IssueInstant string   `xml:"IssueInstant,attr"`
	NameID       string   `xml:"saml:NameID"`
	SessionIndex string   `xml:"samlp:SessionIndex"`
}

func encodeLogoutRequest(ticketID string, now time.Time) (string, error) {
	body, err := xml.Marshal(logoutRequest{
		Samlp:        "urn:oasis:names:tc:SAML:2.0:protocol",
		Saml:         "urn:oasis:names:tc:SAML:2.0:assertion",
		ID:           id.Prefixed("LR"),
		Version:      "2.0",
		IssueInstant: now.UTC().Format(time.RFC3339),
		NameID:       "@NOT_USED@",
		SessionIndex: ticketID,
	})
	return string(body), err
}
