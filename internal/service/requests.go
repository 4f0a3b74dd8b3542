package service

// IngredientLine is one requested ingredient with its quantity
type IngredientLine struct {
	IngredientID  int64    `json:"ingredientId"`
	QuantityValue *float64 `json:"quantityValue"`
	Unit          string   `json:"unit"`
}

// StepInput is one requested preparation step
type StepInput struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// PostCreateRequest carries everything needed to assemble a new post
type PostCreateRequest struct {
	PostType           string           `json:"postType"`
	Status             string           `json:"status"`
	Title              string           `json:"title"`
	Excerpt            string           `json:"excerpt"`
	Content            string           `json:"content"`
	CoverURL           string           `json:"coverUrl"`
	CookingTimeMinutes *int64           `json:"cookingTimeMinutes"`
	Calories           *int64           `json:"calories"`
	AuthorID           int64            `json:"authorId"`
	TagIDs             []int64          `json:"tagIds"`
	Ingredients        []IngredientLine `json:"ingredients"`
	Steps              []StepInput      `json:"steps"`
}

// PostUpdateRequest fully replaces a post's scalar fields and collections.
// Fields absent from the request take their zero value; this is
// replace-semantics, not a partial patch.
type PostUpdateRequest struct {
	PostType           string           `json:"postType"`
	Status             string           `json:"status"`
	Title              string           `json:"title"`
	Excerpt            string           `json:"excerpt"`
	Content            string           `json:"content"`
	CoverURL           string           `json:"coverUrl"`
	CookingTimeMinutes *int64           `json:"cookingTimeMinutes"`
	Calories           *int64           `json:"calories"`
	TagIDs             []int64          `json:"tagIds"`
	Ingredients        []IngredientLine `json:"ingredients"`
	Steps              []StepInput      `json:"steps"`
}
