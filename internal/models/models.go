package models

import (
	"database/sql"
	"time"
)

// We use 'db' tags for sqlx to automatically map
// the database column names (snake_case) to our Go fields (CamelCase).

// Profile represents a user/producer account row. IDs come from the
// Supabase auth user, so they are UUID strings.
type Profile struct {
	ID string `db:"id" json:"id"`
	// Email never serializes: Profile is reused on public pages, so the
	// address is exposed explicitly only where the owner is the reader.
	Email             string         `db:"email" json:"-"`
	Username          string         `db:"username" json:"username"`
	DisplayName       string         `db:"display_name" json:"display_name"`
	Bio               string         `db:"bio" json:"bio"`
	PhotoPath         sql.NullString `db:"photo_path" json:"-"`
	AccentColor       string         `db:"accent_color" json:"accent_color"`
	SubscriptionTier  string         `db:"subscription_tier" json:"subscription_tier"`
	IsVerified        bool           `db:"is_verified" json:"is_verified"`
	IsFounder         bool           `db:"is_founder" json:"is_founder"`
	IsAdmin           bool           `db:"is_admin" json:"is_admin"`
	PaymentCustomerID sql.NullString `db:"payment_customer_id" json:"-"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Beat represents a licensable audio work with per-tier prices in MXN cents.
type Beat struct {
	ID                  string         `db:"id" json:"id"`
	ProducerID          string         `db:"producer_id" json:"producer_id"`
	Title               string         `db:"title" json:"title"`
	Genre               string         `db:"genre" json:"genre"`
	Mood                string         `db:"mood" json:"mood"`
	BPM                 int            `db:"bpm" json:"bpm"`
	MusicalKey          string         `db:"musical_key" json:"musical_key"`
	PriceBasicCents     int64          `db:"price_basic_cents" json:"price_basic_cents"`
	PriceProCents       int64          `db:"price_pro_cents" json:"price_pro_cents"`
	PriceUnlimitedCents int64          `db:"price_unlimited_cents" json:"price_unlimited_cents"`
	PriceExclusiveCents int64          `db:"price_exclusive_cents" json:"price_exclusive_cents"`
	CoverPath           sql.NullString `db:"cover_path" json:"-"`
	MP3Path             sql.NullString `db:"mp3_path" json:"-"`
	WAVPath             sql.NullString `db:"wav_path" json:"-"`
	StemsPath           sql.NullString `db:"stems_path" json:"-"`
	PlayCount           int64          `db:"play_count" json:"play_count"`
	SaleCount           int64          `db:"sale_count" json:"sale_count"`
	IsPublic            bool           `db:"is_public" json:"is_public"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// SoundKit is a sellable archive of samples with a single price.
type SoundKit struct {
	ID          string         `db:"id" json:"id"`
	ProducerID  string         `db:"producer_id" json:"producer_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	PriceCents  int64          `db:"price_cents" json:"price_cents"`
	CoverPath   sql.NullString `db:"cover_path" json:"-"`
	ArchivePath sql.NullString `db:"archive_path" json:"-"`
	IsPublic    bool           `db:"is_public" json:"is_public"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Service is a production service offered by a producer (mixing,
// mastering, custom beats) with a delivery description instead of files.
type Service struct {
	ID           string    `db:"id" json:"id"`
	ProducerID   string    `db:"producer_id" json:"producer_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	PriceCents   int64     `db:"price_cents" json:"price_cents"`
	DeliveryDays int       `db:"delivery_days" json:"delivery_days"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Order is a checkout attempt. It starts 'pending' and becomes 'settled'
// when the payment gateway confirms the transaction.
type Order struct {
	ID             string         `db:"id" json:"id"`
	BuyerID        sql.NullString `db:"buyer_id" json:"buyer_id"`
	BuyerEmail     string         `db:"buyer_email" json:"buyer_email"`
	Status         string         `db:"status" json:"status"`
	TotalCents     int64          `db:"total_cents" json:"total_cents"`
	GatewayOrderID string         `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayTxID    sql.NullString `db:"gateway_tx_id" json:"gateway_tx_id"`
	FriendlyID     sql.NullString `db:"friendly_id" json:"friendly_id"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// OrderItem is one purchased product inside an order.
type OrderItem struct {
	ID          string         `db:"id" json:"id"`
	OrderID     string         `db:"order_id" json:"order_id"`
	ProductID   string         `db:"product_id" json:"product_id"`
	ProductType string         `db:"product_type" json:"product_type"`
	SellerID    string         `db:"seller_id" json:"seller_id"`
	LicenseType sql.NullString `db:"license_type" json:"license_type"`
	Title       string         `db:"title" json:"title"`
	UnitCents   int64          `db:"unit_cents" json:"unit_cents"`
}

// Sale credits a seller for one settled order item. Payout maturation is
// computed from SettledAt.
type Sale struct {
	ID          string         `db:"id" json:"id"`
	OrderID     string         `db:"order_id" json:"order_id"`
	SellerID    string         `db:"seller_id" json:"seller_id"`
	BuyerID     sql.NullString `db:"buyer_id" json:"buyer_id"`
	ProductID   string         `db:"product_id" json:"product_id"`
	ProductType string         `db:"product_type" json:"product_type"`
	LicenseType sql.NullString `db:"license_type" json:"license_type"`
	AmountCents int64          `db:"amount_cents" json:"amount_cents"`
	SettledAt   time.Time      `db:"settled_at" json:"settled_at"`
}

// Comment is a beat-scoped public note, pushed to listeners in realtime.
type Comment struct {
	ID         string    `db:"id" json:"id"`
	BeatID     string    `db:"beat_id" json:"beat_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Playlist is a user-owned ordered collection of beats.
type Playlist struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PlaylistItem struct {
	ID         string    `db:"id" json:"id"`
	PlaylistID string    `db:"playlist_id" json:"playlist_id"`
	BeatID     string    `db:"beat_id" json:"beat_id"`
	Position   int       `db:"position" json:"position"`
	AddedAt    time.Time `db:"added_at" json:"added_at"`
}

// Payout (retiro) is a seller withdrawal request against matured balance.
type Payout struct {
	ID          string       `db:"id" json:"id"`
	SellerID    string       `db:"seller_id" json:"seller_id"`
	AmountCents int64        `db:"amount_cents" json:"amount_cents"`
	Clabe       string       `db:"clabe" json:"clabe"`
	Status      string       `db:"status" json:"status"`
	RequestedAt time.Time    `db:"requested_at" json:"requested_at"`
	PaidAt      sql.NullTime `db:"paid_at" json:"paid_at"`
}
