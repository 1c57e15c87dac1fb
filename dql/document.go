package dql

import (
	"github.com/google/uuid"
	"github.com/valyala/fastjson"
)

// prepareDocument validates doc as a JSON object and returns its id and the
// bytes to store. Documents without an "id" get a random UUID written into
// them.
func prepareDocument(p *fastjson.Parser, doc []byte) (string, []byte, error) {
	v, err := p.ParseBytes(doc)
	if err != nil {
		return "", nil, Wrap(ErrInvalidDocument, "document json", err)
	}
	obj, err := v.Object()
	if err != nil {
		return "", nil, InvalidDocument("document must be a JSON object")
	}

	idVal := obj.Get("id")
	if idVal == nil {
		id := uuid.NewString()
		var a fastjson.Arena
		obj.Set("id", a.NewString(id))
		return id, v.MarshalTo(nil), nil
	}
	if idVal.Type() != fastjson.TypeString {
		return "", nil, &Error{Kind: ErrInvalidDocument, Message: "id must be a string", Field: "id"}
	}
	id := string(idVal.GetStringBytes())
	if id == "" {
		return "", nil, &Error{Kind: ErrInvalidDocument, Message: "id cannot be empty", Field: "id"}
	}
	return id, v.MarshalTo(nil), nil
}
