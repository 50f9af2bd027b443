package models

import "strings"

// Profile - общее поведение всех профилей.
type Profile interface {
	DisplayName() string
}

type StudentProfile struct {
	BaseModel
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Rut       string `json:"rut"`
	Career    string `json:"career"`
}

func (p *StudentProfile) DisplayName() string {
	return fullName(p.FirstName, p.LastName)
}

type CompanyProfile struct {
	BaseModel
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	CompanyName  string `gorm:"not null" json:"company_name"`
	BusinessName string `json:"business_name"`
	Rut          string `json:"rut"`
}

func (p *CompanyProfile) DisplayName() string {
	return p.CompanyName
}

type IndividualProfile struct {
	BaseModel
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Rut       string `json:"rut"`
}

func (p *IndividualProfile) DisplayName() string {
	return fullName(p.FirstName, p.LastName)
}

type AdminProfile struct {
	BaseModel
	UserID     uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName  string `gorm:"not null" json:"first_name"`
	LastName   string `json:"last_name"`
	SuperAdmin bool   `gorm:"default:false" json:"super_admin"`
}

func (p *AdminProfile) DisplayName() string {
	return fullName(p.FirstName, p.LastName)
}

type emailProfile string

func (p emailProfile) DisplayName() string {
	return string(p)
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
