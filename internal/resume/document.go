package resume

import (
	"strconv"
	"strings"
	"time"
)

// Document 是简历的规范内存表示，也是 JSONB 与草稿中保存的结构。
type Document struct {
	Personal   Personal     `json:"personal"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     Skills       `json:"skills"`
}

// Personal 保存个人信息；firstName、lastName、email 视为必填。
type Personal struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Headline  string `json:"headline,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Image     string `json:"image,omitempty"`
}

// Experience 表示一段工作经历。Current 为 true 时忽略 EndDate。
type Experience struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current"`
	Description []string `json:"description"`
}

// Education 表示一段教育经历。
type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// Skills 分为技术技能与语言两类。
type Skills struct {
	Technical []string `json:"technical"`
	Languages []string `json:"languages"`
}

// Shape 描述文档中各可重复区块的条目数量，用于判断是否需要重新自动排版。
type Shape struct {
	Experience int `json:"experience"`
	Education  int `json:"education"`
	Technical  int `json:"technical"`
	Languages  int `json:"languages"`
}

// New 返回初始文档：一条空白工作经历与一条空白教育经历。
func New() Document {
	return Document{
		Experience: []Experience{{ID: "1", Description: []string{}}},
		Education:  []Education{{ID: "1"}},
		Skills:     Skills{Technical: []string{}, Languages: []string{}},
	}
}

// Shape 返回当前文档的区块形状。
func (d Document) Shape() Shape {
	return Shape{
		Experience: len(d.Experience),
		Education:  len(d.Education),
		Technical:  len(d.Skills.Technical),
		Languages:  len(d.Skills.Languages),
	}
}

// Clone 深拷贝文档，调用方可以安全地修改返回值。
func (d Document) Clone() Document {
	out := d
	out.Experience = make([]Experience, len(d.Experience))
	for i, exp := range d.Experience {
		exp.Description = append([]string{}, exp.Description...)
		out.Experience[i] = exp
	}
	out.Education = append([]Education{}, d.Education...)
	out.Skills.Technical = append([]string{}, d.Skills.Technical...)
	out.Skills.Languages = append([]string{}, d.Skills.Languages...)
	return out
}

// IsBlank reports whether no field carries visible content.
func (d Document) IsBlank() bool {
	p := d.Personal
	for _, s := range []string{p.FirstName, p.LastName, p.Headline, p.Email, p.Phone, p.Location, p.LinkedIn, p.Summary} {
		if HasText(s) {
			return false
		}
	}
	for _, exp := range d.Experience {
		if exp.HasData() {
			return false
		}
	}
	for _, edu := range d.Education {
		if edu.HasData() {
			return false
		}
	}
	return len(d.Skills.Technical) == 0 && len(d.Skills.Languages) == 0
}

// FullName 拼接姓名并去除多余空白。
func (p Personal) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// HeaderComplete reports whether company, position, start date and an end
// (or the current flag) are filled in.
func (e Experience) HeaderComplete() bool {
	return HasText(e.Company) &&
		HasText(e.Position) &&
		HasText(e.StartDate) &&
		(e.Current || HasText(e.EndDate))
}

// Complete 表示抬头完整且至少有一条要点。
func (e Experience) Complete() bool {
	return e.HeaderComplete() && len(e.Description) > 0
}

// HasData reports whether any field of the entry was touched.
func (e Experience) HasData() bool {
	return HasText(e.Company) ||
		HasText(e.Position) ||
		HasText(e.Location) ||
		HasText(e.StartDate) ||
		HasText(e.EndDate) ||
		len(e.Description) > 0
}

// Complete 表示学校、学位与专业均已填写。
func (e Education) Complete() bool {
	return HasText(e.Institution) && HasText(e.Degree) && HasText(e.Field)
}

func (e Education) HasData() bool {
	return HasText(e.Institution) ||
		HasText(e.Degree) ||
		HasText(e.Field) ||
		HasText(e.StartDate) ||
		HasText(e.EndDate)
}

// HasText 判断字符串去除空白后是否非空。
func HasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// NewEntryID 生成基于时间的条目 ID。
func NewEntryID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// FormatDate 将 YYYY-MM-DD 渲染为 "Jan 2024"，无法解析时原样返回。
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return value
}

// DateRange 返回经历的时间区间文本，Current 时以 Present 结尾。
func (e Experience) DateRange() string {
	start := FormatDate(e.StartDate)
	end := FormatDate(e.EndDate)
	if e.Current {
		end = "Present"
	}
	return joinRange(start, end)
}

func (e Education) DateRange() string {
	return joinRange(FormatDate(e.StartDate), FormatDate(e.EndDate))
}

func joinRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}
