package api

import (
	"net/http"

	"github.com/projecteru2/logview/utils"

	log "github.com/sirupsen/logrus"
)

// Request .
type Request struct {
	http.Request
	Lines  int
	Height int
	Offset int
}

// Init parses the query
func (r *Request) Init() {
	if err := r.ParseForm(); err != nil {
		log.Debugf("[Request] parse form failed %v", err)
	}
	r.Lines = utils.Atoi(r.Form.Get("lines"), 0)
	r.Height = utils.Atoi(r.Form.Get("height"), -1)
	r.Offset = utils.Atoi(r.Form.Get("offset"), 0)
}

// ID is the :id route param
func (r *Request) ID() string {
	return r.URL.Query().Get(":id")
}

// NewRequest .
func NewRequest(r *http.Request) *Request {
	req := &Request{Request: *r}
	req.Init()
	log.Debugf("[Request] HTTP request %s %s", req.Method, req.URL.Path)
	return req
}
