package api

import "time"

// User is the account entity. The password hash is never serialized.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductType is the closed set of catalog categories.
type ProductType string

const (
	ProductTypeElectronics           ProductType = "electronics"
	ProductTypeClothing              ProductType = "clothing"
	ProductTypeHomeAndKitchen        ProductType = "home_and_kitchen"
	ProductTypeBooks                 ProductType = "books"
	ProductTypeSportsAndOutdoors     ProductType = "sports_and_outdoors"
	ProductTypeBeautyAndPersonalCare ProductType = "beauty_and_personal_care"
	ProductTypeToysAndGames          ProductType = "toys_and_games"
	ProductTypeAutomotive            ProductType = "automotive"
	ProductTypeHealthAndWellness     ProductType = "health_and_wellness"
	ProductTypeGroceries             ProductType = "groceries"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeElectronics, ProductTypeClothing, ProductTypeHomeAndKitchen,
		ProductTypeBooks, ProductTypeSportsAndOutdoors, ProductTypeBeautyAndPersonalCare,
		ProductTypeToysAndGames, ProductTypeAutomotive, ProductTypeHealthAndWellness,
		ProductTypeGroceries:
		return true
	}
	return false
}

type Product struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Brand     string      `json:"brand"`
	Price     float64     `json:"price"`
	Type      ProductType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// InventoryEntry relates a user to a product they own. The (user_id,
// product_id) pair is the primary key; at most one entry per pair exists.
type InventoryEntry struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryItem is the read view of an entry joined with product attributes.
type InventoryItem struct {
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Name      string      `json:"name"`
	Brand     string      `json:"brand"`
	Price     float64     `json:"price"`
	Type      ProductType `json:"type"`
}

// LoginRequest represents the expected JSON body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents the successful JSON response after login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserParams carries the fields of a partial user update. Nil fields
// are left unchanged.
type UpdateUserParams struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// CreateProductRequest doubles as the full-replace update body.
type CreateProductRequest struct {
	Name  string      `json:"name"`
	Brand string      `json:"brand"`
	Price float64     `json:"price"`
	Type  ProductType `json:"type"`
}

// AddInventoryRequest deliberately carries no user_id: ownership always
// comes from the authenticated caller, never from the request body.
type AddInventoryRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity,omitempty"`
}

type UpdateInventoryQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type UserListResponse struct {
	Users []User `json:"users"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
}

type InventoryListResponse struct {
	Items []InventoryItem `json:"items"`
}
