package plugin

import (
	"encoding/json"
	"fmt"
	"io"
)

// Handler performs one plugin action. The returned data, if any, is sent
// back in Response.Data.
type Handler func(req *Request) (any, error)

// Serve is the body of a plugin executable: it reads one Request from r,
// runs the handler registered for its action and writes the Response to w.
// Handler failures are reported in the response, not as an error.
func Serve(r io.Reader, w io.Writer, handlers map[string]Handler) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return writeResponse(w, Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
	}

	handler, ok := handlers[req.Action]
	if !ok {
		return writeResponse(w, Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
	}

	data, err := handler(&req)
	if err != nil {
		return writeResponse(w, Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
	}

	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return writeResponse(w, Response{Error: fmt.Sprintf("encode result: %v", err)})
		}
		resp.Data = raw
	}
	return writeResponse(w, resp)
}

func writeResponse(w io.Writer, resp Response) error {
	return json.NewEncoder(w).Encode(resp)
}
