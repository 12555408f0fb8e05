package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the value of orcamentos_campanhas.status_envio_email.
type DeliveryStatus string

const (
	DeliveryQueued  DeliveryStatus = "na_fila"
	DeliverySending DeliveryStatus = "enviando"
	DeliverySent    DeliveryStatus = "enviado"
	DeliveryFailed  DeliveryStatus = "erro"
)

// EmailKind distinguishes lead notifications from campaign-only reminders.
type EmailKind string

const (
	EmailKindLead           EmailKind = "orcamento"
	EmailKindExpiryReminder EmailKind = "lembrete_vencimento"
)

type City struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"nome"`
	State string    `json:"estado"`
}

type Plan struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"nome"`
	DefaultMonthlyValue float64   `json:"valor_mensal_padrao"`
}

type Company struct {
	ID      uuid.UUID  `json:"id"`
	Name    string     `json:"nome"`
	Address string     `json:"endereco"`
	Phone1  string     `json:"telefone1"`
	Phone2  string     `json:"telefone2"`
	Email   string     `json:"email"`
	CityID  *uuid.UUID `json:"cidade_id,omitempty"`
}

type Listing struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"empresa_id"`
	DisplayName string    `json:"nome_exibicao"`
	Description string    `json:"descricao"`
	Address     string    `json:"endereco"`
	City        string    `json:"cidade"`
	State       string    `json:"estado"`
	Phone1      string    `json:"telefone1"`
	Phone2      string    `json:"telefone2"`
	Email       string    `json:"email"`
	Category    string    `json:"categoria"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Campaign struct {
	ID                    uuid.UUID  `json:"id"`
	ListingID             uuid.UUID  `json:"listingId"`
	PlanID                uuid.UUID  `json:"planId"`
	StartDate             time.Time  `json:"startDate"`
	EndDate               *time.Time `json:"endDate"`
	Active                bool       `json:"active"`
	MonthlyValue          float64    `json:"monthlyValue"`
	ParticipatesInQuoting bool       `json:"participatesInQuoting"`
	MonthlyLeadCap        *int32     `json:"monthlyLeadCap"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// EligibleCampaign is a campaign joined with the listing that hosts it.
type EligibleCampaign struct {
	Campaign Campaign
	Listing  Listing
}

type Lead struct {
	ID               uuid.UUID `json:"id"`
	CustomerName     string    `json:"nome_cliente"`
	CustomerEmail    string    `json:"email_cliente"`
	CustomerPhone    string    `json:"telefone_cliente"`
	OriginCity       string    `json:"origem_cidade"`
	OriginState      string    `json:"origem_estado"`
	DestinationCity  string    `json:"destino_cidade"`
	DestinationState string    `json:"destino_estado"`
	PropertyType     string    `json:"tipo_imovel"`
	Rooms            int32     `json:"comodos"`
	DistanceKm       float64   `json:"distancia_km"`
	PriceMin         float64   `json:"preco_min"`
	PriceMax         float64   `json:"preco_max"`
	CreatedAt        time.Time `json:"created_at"`
}

type DeliveryRecord struct {
	ID            uuid.UUID      `json:"id"`
	LeadID        *uuid.UUID     `json:"leadId"`
	CampaignID    uuid.UUID      `json:"campaignId"`
	Kind          EmailKind      `json:"emailKind"`
	Cycle         *time.Time     `json:"cycle,omitempty"`
	Status        DeliveryStatus `json:"status"`
	Attempts      int32          `json:"attempts"`
	LastError     *string        `json:"lastError"`
	LastAttemptAt *time.Time     `json:"lastAttemptAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type EmailTrackingEntry struct {
	ID               uuid.UUID       `json:"id"`
	TrackingCode     string          `json:"codigo_rastreamento"`
	Recipient        string          `json:"destinatario"`
	Subject          string          `json:"assunto"`
	Provider         string          `json:"provedor"`
	Status           string          `json:"status"`
	EmailKind        string          `json:"tipo_email"`
	DeliveryRecordID *uuid.UUID      `json:"orcamento_campanha_id,omitempty"`
	SentAt           time.Time       `json:"enviado_em"`
	Metadata         json.RawMessage `json:"metadata"`
}

type Setting struct {
	Key       string    `json:"chave"`
	Value     string    `json:"valor"`
	UpdatedAt time.Time `json:"updated_at"`
}
