package catalog

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

// ParseDescriptors decodes every YAML document in r into an entity.
// Empty documents are skipped. Each entity is validated; the first invalid
// document aborts decoding.
func ParseDescriptors(r io.Reader) ([]Entity, error) {
	dec := yaml.NewDecoder(r)

	var out []Entity
	for doc := 1; ; doc++ {
		var e Entity
		err := dec.Decode(&e)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidEntity, err, "decode document %d", doc)
		}
		if e.Kind == "" && e.Metadata.Name == "" {
			continue
		}
		if err := Validate(e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// MarshalDescriptors encodes entities as a multi-document YAML stream.
func MarshalDescriptors(entities []Entity) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, e := range entities {
		if err := enc.Encode(e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", e.Ref())
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
