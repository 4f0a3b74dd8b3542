package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zagrebin/culinaryblog/internal/api/objects"
)

// listTags returns one page of tags in a {results, next} envelope
func (r *Router) listTags(c *gin.Context) {
	page, pageSize := pageParams(c, 16)
	search := c.Query("search")

	tags, err := r.tags.List(c.Request.Context(), search, page, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	total, err := r.tags.Count(c.Request.Context(), search)
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]objects.Tag, 0, len(tags))
	for i := range tags {
		results = append(results, objects.NewTag(&tags[i]))
	}

	next := ""
	if int64(page*pageSize) < total {
		next = nextPageURL("/api/tags", page, pageSize, search)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "next": next})
}

// listIngredients returns one page of ingredients in a {results, next} envelope
func (r *Router) listIngredients(c *gin.Context) {
	page, pageSize := pageParams(c, 30)
	search := c.Query("search")

	ingredients, err := r.ingredients.List(c.Request.Context(), search, page, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	total, err := r.ingredients.Count(c.Request.Context(), search)
	if err != nil {
		abortWithError(c, err)
		return
	}

	type ingredientResult struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	results := make([]ingredientResult, 0, len(ingredients))
	for _, ing := range ingredients {
		results = append(results, ingredientResult{ID: ing.ID, Name: ing.Name})
	}

	next := ""
	if int64(page*pageSize) < total {
		next = nextPageURL("/api/ingredients", page, pageSize, search)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "next": next})
}

// pageParams parses page/page_size query parameters; page is 1-based
func pageParams(c *gin.Context, defaultSize int) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = defaultSize
	}
	return page, pageSize
}

// nextPageURL builds the link to the following page
func nextPageURL(path string, page, pageSize int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page+1))
	q.Set("page_size", strconv.Itoa(pageSize))
	if search != "" {
		q.Set("search", search)
	}
	return path + "?" + q.Encode()
}
