package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap — колонка имя/балл (снапшоты эффективностей барьеров). Хранится
// текстом, чтобы одинаково работать в postgres и sqlite.
type JSONMap map[string]float64

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}
	return json.Marshal(map[string]float64(m))
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("JSONMap: unsupported column type %T", src)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, (*map[string]float64)(m))
}

// JSONDoc — произвольный JSON-документ как есть (детали матрицы, геоданные).
type JSONDoc []byte

func (d JSONDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return []byte(d), nil
}

func (d *JSONDoc) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*d = append(JSONDoc(nil), v...)
	case string:
		*d = JSONDoc(v)
	default:
		return fmt.Errorf("JSONDoc: unsupported column type %T", src)
	}
	return nil
}

func (d JSONDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JSONDoc) UnmarshalJSON(data []byte) error {
	*d = append(JSONDoc(nil), data...)
	return nil
}
