package model

import "fmt"

// State is the workflow state of a digest record.
type State string

// Supported record states.
const (
	StateUnknown   State = "unknown"
	StateInDigest  State = "in_digest"
	StateOutdated  State = "outdated"
	StateIgnored   State = "ignored"
	StateDuplicate State = "duplicate"
)

// States lists all states in prompt display order.
var States = []State{StateUnknown, StateInDigest, StateOutdated, StateIgnored, StateDuplicate}

// ParseState converts a stored state value into a State.
func ParseState(s string) (State, error) {
	for _, st := range States {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown record state %q", s)
}

// ContentType is the top-level classification of a record.
type ContentType string

// Supported content types.
const (
	TypeUnknown  ContentType = "unknown"
	TypeNews     ContentType = "news"
	TypeArticles ContentType = "articles"
	TypeVideos   ContentType = "videos"
	TypeReleases ContentType = "releases"
	TypeOther    ContentType = "other"
)

// ContentTypes lists all content types in prompt display order.
var ContentTypes = []ContentType{TypeUnknown, TypeNews, TypeArticles, TypeVideos, TypeReleases, TypeOther}

// RenderTypeOrder is the fixed section order of the rendered digest.
// It deliberately differs from declaration order.
var RenderTypeOrder = []ContentType{TypeNews, TypeVideos, TypeArticles, TypeReleases}

// ParseContentType converts a stored content type value into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	for _, ct := range ContentTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// NeedsCategory reports whether records of this type carry a content category.
func (ct ContentType) NeedsCategory() bool {
	return ct != TypeUnknown && ct != TypeOther
}

// ContentCategory is the topical tag of a record within its content type.
type ContentCategory string

// Supported content categories.
const (
	CategoryEvents      ContentCategory = "events"
	CategoryIntros      ContentCategory = "intros"
	CategoryOpening     ContentCategory = "opening"
	CategoryOrg         ContentCategory = "org"
	CategoryDIY         ContentCategory = "diy"
	CategoryLaw         ContentCategory = "law"
	CategoryKnD         ContentCategory = "knd"
	CategorySpecial     ContentCategory = "special"
	CategoryEducation   ContentCategory = "education"
	CategoryDatabases   ContentCategory = "db"
	CategoryMultimedia  ContentCategory = "multimedia"
	CategoryMobile      ContentCategory = "mobile"
	CategorySecurity    ContentCategory = "security"
	CategorySystem      ContentCategory = "system"
	CategorySysAdm      ContentCategory = "sysadm"
	CategoryDevOps      ContentCategory = "devops"
	CategoryDataScience ContentCategory = "data_science"
	CategoryWeb         ContentCategory = "web"
	CategoryDev         ContentCategory = "dev"
	CategoryTesting     ContentCategory = "testing"
	CategoryHistory     ContentCategory = "history"
	CategoryManagement  ContentCategory = "management"
	CategoryUser        ContentCategory = "user"
	CategoryGames       ContentCategory = "games"
	CategoryHardware    ContentCategory = "hardware"
	CategoryMessengers  ContentCategory = "messengers"
	CategoryMisc        ContentCategory = "misc"
)

// ContentCategories lists all content categories in prompt display order.
var ContentCategories = []ContentCategory{
	CategoryEvents, CategoryIntros, CategoryOpening, CategoryOrg, CategoryDIY,
	CategoryLaw, CategoryKnD, CategorySpecial, CategoryEducation, CategoryDatabases,
	CategoryMultimedia, CategoryMobile, CategorySecurity, CategorySystem, CategorySysAdm,
	CategoryDevOps, CategoryDataScience, CategoryWeb, CategoryDev, CategoryTesting,
	CategoryHistory, CategoryManagement, CategoryUser, CategoryGames, CategoryHardware,
	CategoryMessengers, CategoryMisc,
}

// ParseContentCategory converts a stored category value into a ContentCategory.
// The store historically spells the databases category out in full.
func ParseContentCategory(s string) (ContentCategory, error) {
	if s == "databases" {
		return CategoryDatabases, nil
	}
	for _, cc := range ContentCategories {
		if string(cc) == s {
			return cc, nil
		}
	}
	return "", fmt.Errorf("unknown content category %q", s)
}

// Language is the language of a record's source material.
type Language string

// Supported languages.
const (
	LanguageEnglish Language = "english"
	LanguageRussian Language = "russian"
)

// ContentTypeLabelsRU maps content types to Russian section headers.
var ContentTypeLabelsRU = map[ContentType]string{
	TypeUnknown:  "Неизвестно",
	TypeNews:     "Новости",
	TypeArticles: "Статьи",
	TypeVideos:   "Видео",
	TypeReleases: "Релизы",
	TypeOther:    "Прочее",
}

// ContentTypeLabelsEN maps content types to English section headers.
var ContentTypeLabelsEN = map[ContentType]string{
	TypeUnknown:  "Unknown",
	TypeNews:     "News",
	TypeArticles: "Articles",
	TypeVideos:   "Videos",
	TypeReleases: "Releases",
	TypeOther:    "Other",
}

// ContentCategoryLabelsRU maps content categories to Russian subsection headers.
var ContentCategoryLabelsRU = map[ContentCategory]string{
	CategoryEvents:      "Мероприятия",
	CategoryIntros:      "Внедрения",
	CategoryOpening:     "Открытие кода и данных",
	CategoryOrg:         "Дела организаций",
	CategoryDIY:         "DIY",
	CategoryLaw:         "Юридические вопросы",
	CategoryKnD:         "Ядро Linux, дистрибутивы на его основе и прочие ОС",
	CategorySpecial:     "Специальное",
	CategoryEducation:   "Обучение",
	CategoryDatabases:   "Базы данных",
	CategoryMultimedia:  "Мультимедиа",
	CategoryMobile:      "Мобильные",
	CategorySecurity:    "Безопасность",
	CategorySystem:      "Системное",
	CategorySysAdm:      "Системное администрирование",
	CategoryDevOps:      "DevOps",
	CategoryDataScience: "AI, ML и Data Science",
	CategoryWeb:         "Web и подобное",
	CategoryDev:         "Разработка",
	CategoryTesting:     "Тестирование",
	CategoryHistory:     "История",
	CategoryManagement:  "Менеджмент",
	CategoryUser:        "Пользовательское",
	CategoryGames:       "Игры",
	CategoryHardware:    "Железо",
	CategoryMessengers:  "Мессенджеры",
	CategoryMisc:        "Разное",
}

// ContentCategoryLabelsEN maps content categories to English subsection headers.
var ContentCategoryLabelsEN = map[ContentCategory]string{
	CategoryEvents:      "Events",
	CategoryIntros:      "Introductions",
	CategoryOpening:     "Code and data opening",
	CategoryOrg:         "Organizations related",
	CategoryDIY:         "DIY",
	CategoryLaw:         "Law",
	CategoryKnD:         "Linux Kernel, Distributions Based on It and other OS",
	CategorySpecial:     "Special",
	CategoryEducation:   "Education",
	CategoryDatabases:   "Databases",
	CategoryMultimedia:  "Multimedia",
	CategoryMobile:      "Mobile",
	CategorySecurity:    "Security",
	CategorySystem:      "System",
	CategorySysAdm:      "System Administration",
	CategoryDevOps:      "DevOps",
	CategoryDataScience: "AI & Data Science",
	CategoryWeb:         "Web and Related",
	CategoryDev:         "Development",
	CategoryTesting:     "Testing",
	CategoryHistory:     "History",
	CategoryManagement:  "Management",
	CategoryUser:        "Basic User Things",
	CategoryGames:       "Games",
	CategoryHardware:    "Hardware",
	CategoryMessengers:  "Messengers",
	CategoryMisc:        "Miscellaneous",
}
