package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// TaxRegime is the client's tax classification
type TaxRegime string

const (
	RegimeSimples   TaxRegime = "SIMPLES_NACIONAL"
	RegimePresumido TaxRegime = "LUCRO_PRESUMIDO"
	RegimeReal      TaxRegime = "LUCRO_REAL"
	RegimeMEI       TaxRegime = "MEI"
	RegimeDomestico TaxRegime = "EMPREGADOR_DOMESTICO"
	RegimeAutonomo  TaxRegime = "AUTONOMO"
)

// Address is a client's registered address, stored as a JSON column
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
}

func (a Address) Value() (driver.Value, error) { return jsonValue(a) }
func (a *Address) Scan(src interface{}) error  { return jsonScan(a, src) }

// Responsible is the client-side contact person, stored as a JSON column
type Responsible struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	CPF   string `json:"cpf,omitempty"`
}

func (r Responsible) Value() (driver.Value, error) { return jsonValue(r) }
func (r *Responsible) Scan(src interface{}) error  { return jsonScan(r, src) }

// Contract holds the service contract terms, stored as a JSON column
type Contract struct {
	MonthlyFee float64    `json:"monthly_fee"`
	DueDay     int        `json:"due_day"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	Services   []string   `json:"services,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

func (c Contract) Value() (driver.Value, error) { return jsonValue(c) }
func (c *Contract) Scan(src interface{}) error  { return jsonScan(c, src) }

// DocumentRefs is a free-form list of document names attached to a client
type DocumentRefs []string

func (d DocumentRefs) Value() (driver.Value, error) {
	if d == nil {
		return jsonValue(DocumentRefs{})
	}
	return jsonValue(d)
}
func (d *DocumentRefs) Scan(src interface{}) error { return jsonScan(d, src) }

// Client represents a business entity served by the accounting firm.
// Referenced by Tasks and Leads through the client id; the denormalized
// client name carried by those rows is refreshed on upsert.
type Client struct {
	ID            string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string         `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	Name          string         `json:"name" gorm:"not null"`
	TradeName     string         `json:"trade_name"`
	CNPJ          string         `json:"cnpj" gorm:"type:varchar(18)"`
	TaxRegime     TaxRegime      `json:"tax_regime" gorm:"type:varchar(32)"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Address       Address        `json:"address" gorm:"type:json"`
	Responsible   Responsible    `json:"responsible" gorm:"type:json"`
	Contract      Contract       `json:"contract" gorm:"type:json"`
	Documents     DocumentRefs   `json:"documents" gorm:"type:json"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	Version       int64          `json:"version" gorm:"default:1"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (Client) TableName() string {
	return "clients"
}
