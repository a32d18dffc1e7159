package resume

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// ErrInvalidDocument 表示 JSON 结构不符合简历文档的 schema。
var ErrInvalidDocument = errors.New("invalid resume structure")

// Validate 使用内嵌 JSON Schema 校验原始字节，返回的错误列出所有不合规字段。
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// Decode 校验并解析文档，补齐缺失的列表与条目 ID。
func Decode(raw []byte) (Document, error) {
	if err := Validate(raw); err != nil {
		return Document{}, err
	}
	var wire wireDocument
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc := wire.document()
	doc.Normalize(time.Now())
	return doc, nil
}

// Normalize 将 nil 列表替换为空列表，并为缺少 ID 的条目生成 ID。
func (d *Document) Normalize(now time.Time) {
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Skills.Technical == nil {
		d.Skills.Technical = []string{}
	}
	if d.Skills.Languages == nil {
		d.Skills.Languages = []string{}
	}
	seen := make(map[string]bool)
	next := now.UnixMilli()
	mint := func(id string) string {
		if id == "" || seen[id] {
			for seen[strconv.FormatInt(next, 10)] {
				next++
			}
			id = strconv.FormatInt(next, 10)
			next++
		}
		seen[id] = true
		return id
	}
	for i := range d.Experience {
		if d.Experience[i].Description == nil {
			d.Experience[i].Description = []string{}
		}
		d.Experience[i].ID = mint(d.Experience[i].ID)
	}
	seen = make(map[string]bool)
	for i := range d.Education {
		d.Education[i].ID = mint(d.Education[i].ID)
	}
}

// flexibleID 兼容模型输出中数字形式的 id。
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type wireDocument struct {
	Personal   Personal `json:"personal"`
	Experience []struct {
		Experience
		ID flexibleID `json:"id"`
	} `json:"experience"`
	Education []struct {
		Education
		ID flexibleID `json:"id"`
	} `json:"education"`
	Skills Skills `json:"skills"`
}

func (w wireDocument) document() Document {
	doc := Document{Personal: w.Personal, Skills: w.Skills}
	for _, e := range w.Experience {
		exp := e.Experience
		exp.ID = string(e.ID)
		doc.Experience = append(doc.Experience, exp)
	}
	for _, e := range w.Education {
		edu := e.Education
		edu.ID = string(e.ID)
		doc.Education = append(doc.Education, edu)
	}
	return doc
}
