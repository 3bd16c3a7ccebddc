package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// Damages is the free-text list of reported damages. It is stored as a
// single JSON text column and reconstructed here so the services only
// ever see the structured sequence.
type Damages []string

func (d Damages) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Damages) Scan(src any) error {
	if src == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.Errorf("damages: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(raw, d)
}
