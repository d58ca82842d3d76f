package models

import "time"

// SettingsRowID is the primary key of the single company settings row.
const SettingsRowID = 1

type CompanySettings struct {
	ID               int        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CompanyName      string     `gorm:"type:varchar(255)" json:"company_name"`
	ShortName        string     `gorm:"type:varchar(64)" json:"short_name"`
	Tagline          string     `gorm:"type:text" json:"tagline"`
	Email            string     `gorm:"type:varchar(255)" json:"email"`
	Phone            string     `gorm:"type:varchar(64)" json:"phone"`
	WhatsApp         string     `gorm:"column:whatsapp;type:varchar(64)" json:"whatsapp"`
	Address          string     `gorm:"type:text" json:"address"`
	BusinessHours    string     `gorm:"type:text" json:"business_hours"`
	Logo             string     `gorm:"type:text" json:"logo"`
	LogoDark         string     `gorm:"type:text" json:"logo_dark"`
	Favicon          string     `gorm:"type:text" json:"favicon"`
	FacebookURL      string     `gorm:"type:text" json:"facebook_url"`
	InstagramURL     string     `gorm:"type:text" json:"instagram_url"`
	LinkedInURL      string     `gorm:"column:linkedin_url;type:text" json:"linkedin_url"`
	TwitterURL       string     `gorm:"type:text" json:"twitter_url"`
	YouTubeURL       string     `gorm:"column:youtube_url;type:text" json:"youtube_url"`
	TikTokURL        string     `gorm:"column:tiktok_url;type:text" json:"tiktok_url"`
	MetaTitle        string     `gorm:"type:text" json:"meta_title"`
	MetaDescription  string     `gorm:"type:text" json:"meta_description"`
	MetaKeywords     string     `gorm:"type:text" json:"meta_keywords"`
	FooterCategories StringList `gorm:"type:jsonb" json:"footer_categories"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// DefaultCompanySettings are served until an admin saves the row.
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		ID:               SettingsRowID,
		CompanyName:      "Inkfinity Creation",
		ShortName:        "Inkfinity",
		Tagline:          "Custom clothing, made to order",
		Email:            "hello@inkfinitycreation.com",
		BusinessHours:    "Mon - Sat: 9:00 AM - 6:00 PM",
		MetaTitle:        "Inkfinity Creation | Custom Clothing Manufacturer",
		MetaDescription:  "Custom t-shirts, hoodies, uniforms and corporate apparel manufactured to order.",
		MetaKeywords:     "custom clothing, t-shirt printing, uniforms, corporate apparel",
		FooterCategories: StringList{},
	}
}

// MergeOverDefaults returns s with every empty field filled from the
// defaults.
func (s CompanySettings) MergeOverDefaults() CompanySettings {
	d := DefaultCompanySettings()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	s.ID = SettingsRowID
	fill(&s.CompanyName, d.CompanyName)
	fill(&s.ShortName, d.ShortName)
	fill(&s.Tagline, d.Tagline)
	fill(&s.Email, d.Email)
	fill(&s.Phone, d.Phone)
	fill(&s.WhatsApp, d.WhatsApp)
	fill(&s.Address, d.Address)
	fill(&s.BusinessHours, d.BusinessHours)
	fill(&s.MetaTitle, d.MetaTitle)
	fill(&s.MetaDescription, d.MetaDescription)
	fill(&s.MetaKeywords, d.MetaKeywords)
	if s.FooterCategories == nil {
		s.FooterCategories = StringList{}
	}
	return s
}

// SettingsInput is the admin settings form. Image fields are managed through
// the dedicated upload and remove endpoints.
type SettingsInput struct {
	CompanyName      string   `json:"company_name" binding:"omitempty,max=255"`
	ShortName        string   `json:"short_name" binding:"omitempty,max=64"`
	Tagline          string   `json:"tagline"`
	Email            string   `json:"email" binding:"omitempty,email"`
	Phone            string   `json:"phone"`
	WhatsApp         string   `json:"whatsapp"`
	Address          string   `json:"address"`
	BusinessHours    string   `json:"business_hours"`
	FacebookURL      string   `json:"facebook_url" binding:"omitempty,url"`
	InstagramURL     string   `json:"instagram_url" binding:"omitempty,url"`
	LinkedInURL      string   `json:"linkedin_url" binding:"omitempty,url"`
	TwitterURL       string   `json:"twitter_url" binding:"omitempty,url"`
	YouTubeURL       string   `json:"youtube_url" binding:"omitempty,url"`
	TikTokURL        string   `json:"tiktok_url" binding:"omitempty,url"`
	MetaTitle        string   `json:"meta_title"`
	MetaDescription  string   `json:"meta_description"`
	MetaKeywords     string   `json:"meta_keywords"`
	FooterCategories []string `json:"footer_categories"`
}

// Apply copies the form fields onto s, leaving image fields untouched.
func (in SettingsInput) Apply(s *CompanySettings) {
	s.CompanyName = in.CompanyName
	s.ShortName = in.ShortName
	s.Tagline = in.Tagline
	s.Email = in.Email
	s.Phone = in.Phone
	s.WhatsApp = in.WhatsApp
	s.Address = in.Address
	s.BusinessHours = in.BusinessHours
	s.FacebookURL = in.FacebookURL
	s.InstagramURL = in.InstagramURL
	s.LinkedInURL = in.LinkedInURL
	s.TwitterURL = in.TwitterURL
	s.YouTubeURL = in.YouTubeURL
	s.TikTokURL = in.TikTokURL
	s.MetaTitle = in.MetaTitle
	s.MetaDescription = in.MetaDescription
	s.MetaKeywords = in.MetaKeywords
	s.FooterCategories = StringList(in.FooterCategories)
	if s.FooterCategories == nil {
		s.FooterCategories = StringList{}
	}
}
