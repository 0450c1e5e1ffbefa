package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/jx"
)

// writeStatus writes a {"code","message"} JSON body, the same shape the API
// handlers use for errors.
func writeStatus(w http.ResponseWriter, code int, message string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
