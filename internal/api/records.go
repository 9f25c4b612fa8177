package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"expense_tracker/internal/domain" // Importing domain models
	"expense_tracker/internal/policy" // Record access policy
	"expense_tracker/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateRecordRequest represents the writable fields on create. Owner,
// timestamps and total are deliberately absent: clients cannot set them.
type CreateRecordRequest struct {
	Title           string  `json:"title" binding:"required"`                              // Short description
	TransactionType string  `json:"transaction_type" binding:"required,oneof=expense income"` // expense or income
	Amount          float64 `json:"amount" binding:"required"`                             // Amount before tax
	Tax             float64 `json:"tax" binding:"gte=0"`                                   // Tax value, defaults to 0
	Category        string  `json:"category"`                                              // Free-form category
	Note            string  `json:"note"`                                                  // Free-form note
	Date            string  `json:"date"`                                                  // Transaction date, defaults to today
}

// UpdateRecordRequest represents the writable fields on full update (PUT)
type UpdateRecordRequest struct {
	Title           string  `json:"title" binding:"required"`                              // Short description
	TransactionType string  `json:"transaction_type" binding:"required,oneof=expense income"` // expense or income
	Amount          float64 `json:"amount" binding:"required"`                             // Amount before tax
	Tax             float64 `json:"tax" binding:"gte=0"`                                   // Tax value
	Category        string  `json:"category"`                                              // Free-form category
	Note            string  `json:"note"`                                                  // Free-form note
	Date            string  `json:"date"`                                                  // Transaction date, keeps current value if empty
}

// PatchRecordRequest represents a partial update; absent fields stay untouched
type PatchRecordRequest struct {
	Title           *string  `json:"title"`                                              // Short description
	TransactionType *string  `json:"transaction_type" binding:"omitempty,oneof=expense income"` // expense or income
	Amount          *float64 `json:"amount"`                                             // Amount before tax
	Tax             *float64 `json:"tax" binding:"omitempty,gte=0"`                      // Tax value
	Category        *string  `json:"category"`                                           // Free-form category
	Note            *string  `json:"note"`                                               // Free-form note
	Date            *string  `json:"date"`                                               // Transaction date
}

// RecordResponse is the external representation of a record: every stored
// attribute verbatim plus the computed total
type RecordResponse struct {
	ID              uint      `json:"id"`               // Record ID
	UserID          uint      `json:"user"`             // Owning user
	Title           string    `json:"title"`            // Short description
	TransactionType string    `json:"transaction_type"` // expense or income
	Amount          float64   `json:"amount"`           // Amount before tax
	Tax             float64   `json:"tax"`              // Tax value
	Total           float64   `json:"total"`            // Computed amount + tax, never stored
	Category        string    `json:"category"`         // Free-form category
	Note            string    `json:"note"`             // Free-form note
	Date            time.Time `json:"date"`             // Transaction date
	CreatedAt       time.Time `json:"created_at"`       // Creation timestamp
	UpdatedAt       time.Time `json:"updated_at"`       // Last update timestamp
}

// toRecordResponse renders a stored record, recomputing the total from the
// current amount and tax so it reflects changes made in the same request
func toRecordResponse(rec *domain.ExpenseIncome) RecordResponse {
	return RecordResponse{
		ID:              rec.ID,              // Record ID
		UserID:          rec.UserID,          // Owning user
		Title:           rec.Title,           // Short description
		TransactionType: rec.TransactionType, // expense or income
		Amount:          rec.Amount,          // Amount before tax
		Tax:             rec.Tax,             // Tax value
		Total:           rec.Total(),         // Recomputed on every render
		Category:        rec.Category,        // Free-form category
		Note:            rec.Note,            // Free-form note
		Date:            rec.Date,            // Transaction date
		CreatedAt:       rec.CreatedAt,       // Creation timestamp
		UpdatedAt:       rec.UpdatedAt,       // Last update timestamp
	}
}

// parseDate accepts the common date layouts clients send
func parseDate(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339,          // 2025-12-03T00:00:00+08:00
		"2006-01-02T15:04:05", // 2025-12-03T00:00:00
		"2006-01-02",          // 2025-12-03
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// requester extracts the authenticated identity and staff flag set by the JWT
// middleware. Returns false (and writes the response) when the context is
// missing them.
func requester(c *gin.Context) (uint, bool, bool) {
	userID, exists := c.Get("userID") // Get userID from context
	if !exists {
		// If not, return unauthorized
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false, false
	}
	isStaff, _ := c.Get("isStaff") // Get staff flag from context
	staff, _ := isStaff.(bool)
	return userID.(uint), staff, true
}

// fetchRecord performs the single-record access path: the record is fetched by
// identifier alone, without an ownership filter, and only then checked against
// the access policy. A missing identifier is 404 for every requester; an
// existing record owned by someone else is 403, not 404. The ordering reveals
// that the record exists to non-owners; that disclosure is a policy decision
// carried over from the product, not something to fold into 404 here.
func fetchRecord(c *gin.Context, db *gorm.DB, requesterID uint, isStaff bool) (*domain.ExpenseIncome, bool) {
	id, err := strconv.Atoi(c.Param("id")) // Parse record ID from path
	if err != nil || id <= 0 {
		// If invalid, return bad request
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return nil, false
	}
	var rec domain.ExpenseIncome // Record to fetch
	// Lookup by identifier alone, never owner-filtered
	if err := db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No record with that identifier exists at all
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		} else {
			// Any other lookup failure is a server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch record"})
		}
		return nil, false
	}
	// Existence established; now apply the ownership policy
	if !policy.Authorize(&rec, requesterID, isStaff) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this record"})
		return nil, false
	}
	return &rec, true
}

// listCacheKey builds the cache key for a page of the requester's list. Staff
// share one unfiltered view; everyone else has a per-user view.
func listCacheKey(requesterID uint, isStaff bool, page, pageSize int) string {
	scope := "user:" + strconv.Itoa(int(requesterID)) // Per-user scope
	if isStaff {
		scope = "all" // Staff scope is shared
	}
	return "records:" + scope + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
}

// invalidateListCache drops the cached list pages affected by a write: the
// owner's pages and the shared staff pages (simple version: delete first 5
// pages at the default size)
func invalidateListCache(ctx context.Context, rdb *redis.Client, ownerID uint) {
	for i := 1; i <= 5; i++ {
		// Delete cache entries for the owner and the staff view
		_ = utils.DeleteCache(ctx, rdb, listCacheKey(ownerID, false, i, 20))
		_ = utils.DeleteCache(ctx, rdb, listCacheKey(0, true, i, 20))
	}
}

// CreateRecordHandler creates a record owned by the authenticated requester.
// Any client-supplied owner, timestamp or total is ignored: those fields are
// not bindable, and the owner is forced to the requester unconditionally.
func CreateRecordHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, _, ok := requester(c) // Get identity from context; staff creates own records like anyone else
		if !ok {
			return
		}
		var req CreateRecordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request with field detail
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Transaction date defaults to now when absent
		date := time.Now()
		if req.Date != "" {
			parsed, ok := parseDate(req.Date)
			if !ok {
				// If the date is unparseable, return bad request
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
				return
			}
			date = parsed
		}
		// Build the record; owner is always the requester, timestamps are set
		// by the persistence layer
		rec := domain.ExpenseIncome{
			UserID:          requesterID,         // Forced server-side
			Title:           req.Title,           // Short description
			TransactionType: req.TransactionType, // expense or income
			Amount:          req.Amount,          // Amount before tax
			Tax:             req.Tax,             // Tax value
			Category:        req.Category,        // Free-form category
			Note:            req.Note,            // Free-form note
			Date:            date,                // Transaction date
		}
		// Attempt to create the record in the database
		if err := db.Create(&rec).Error; err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": requesterID, // Owner user ID
				"error":   err.Error(), // Error message
			}).Error("Record create failed") // Log create failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create record"})
			return
		}
		// Log successful creation
		logrus.WithFields(logrus.Fields{
			"user_id":   requesterID,         // Owner user ID
			"record_id": rec.ID,              // New record ID
			"type":      rec.TransactionType, // expense or income
			"amount":    rec.Amount,          // Amount before tax
		}).Info("Record created") // Log record creation
		// Invalidate cached list pages
		invalidateListCache(c.Request.Context(), rdb, requesterID)
		// Return the created record with its computed total
		c.JSON(http.StatusCreated, toRecordResponse(&rec))
	}
}

// ListRecordsHandler returns the records the requester may see: every record
// for staff, only owned records otherwise. Records outside the scope are
// silently absent, never an error.
func ListRecordsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, isStaff, ok := requester(c) // Get identity from context
		if !ok {
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize // Calculate offset
		ctx := c.Request.Context()      // Context for Redis operations
		cacheKey := listCacheKey(requesterID, isStaff, page, pageSize)
		var cached struct {
			Records    []RecordResponse `json:"records"`     // List of records
			Page       int              `json:"page"`        // Current page
			PageSize   int              `json:"page_size"`   // Page size
			Total      int64            `json:"total"`       // Total records in scope
			TotalPages int              `json:"total_pages"` // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"records":     cached.Records,    // Cached records
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total records in scope
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		// Scope the query per the access policy before anything else
		scoped := policy.Scope(db.Model(&domain.ExpenseIncome{}), requesterID, isStaff)
		var total int64 // Total count of records in scope
		// Count records for pagination
		if err := scoped.Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count records"})
			return
		}
		var records []domain.ExpenseIncome // Slice to hold records
		// Fetch the paginated page of the scoped set
		if err := scoped.
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&records).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
			return
		}
		// Render each record with its computed total
		resp := make([]RecordResponse, len(records))
		for i := range records {
			resp[i] = toRecordResponse(&records[i])
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		respData := gin.H{
			"records":     resp,       // List of records
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total records in scope
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, 60*time.Second)
		c.JSON(http.StatusOK, respData) // Return the record list
	}
}

// GetRecordHandler returns a single record by identifier, authorization per
// the access policy
func GetRecordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, isStaff, ok := requester(c) // Get identity from context
		if !ok {
			return
		}
		rec, ok := fetchRecord(c, db, requesterID, isStaff) // Lookup then authorize
		if !ok {
			return
		}
		c.JSON(http.StatusOK, toRecordResponse(rec)) // Render with computed total
	}
}

// UpdateRecordHandler replaces the writable fields of a record (PUT). Owner
// and timestamps cannot be changed through here regardless of request body.
func UpdateRecordHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, isStaff, ok := requester(c) // Get identity from context
		if !ok {
			return
		}
		var req UpdateRecordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request with field detail
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, ok := fetchRecord(c, db, requesterID, isStaff) // Lookup then authorize
		if !ok {
			return
		}
		// Replace writable fields; UserID and CreatedAt are left alone,
		// UpdatedAt is maintained by the persistence layer
		rec.Title = req.Title
		rec.TransactionType = req.TransactionType
		rec.Amount = req.Amount
		rec.Tax = req.Tax
		rec.Category = req.Category
		rec.Note = req.Note
		// Empty date keeps the current value
		if req.Date != "" {
			parsed, ok := parseDate(req.Date)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
				return
			}
			rec.Date = parsed
		}
		// Save the updated record
		if err := db.Save(rec).Error; err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id":   requesterID, // Requester user ID
				"record_id": rec.ID,      // Record ID
				"error":     err.Error(), // Error message
			}).Error("Record update failed") // Log update failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update record"})
			return
		}
		// Log successful update
		logrus.WithFields(logrus.Fields{
			"user_id":   requesterID, // Requester user ID
			"record_id": rec.ID,      // Record ID
			"owner_id":  rec.UserID,  // Owner user ID (differs for staff edits)
		}).Info("Record updated") // Log record update
		// Invalidate cached list pages for the record's owner
		invalidateListCache(c.Request.Context(), rdb, rec.UserID)
		// Return the updated record with its recomputed total
		c.JSON(http.StatusOK, toRecordResponse(rec))
	}
}

// PatchRecordHandler applies a partial update; fields absent from the body
// stay untouched. Owner and timestamps are not bindable here either.
func PatchRecordHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, isStaff, ok := requester(c) // Get identity from context
		if !ok {
			return
		}
		var req PatchRecordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request with field detail
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, ok := fetchRecord(c, db, requesterID, isStaff) // Lookup then authorize
		if !ok {
			return
		}
		// Apply only the fields the client provided
		if req.Title != nil {
			rec.Title = *req.Title
		}
		if req.TransactionType != nil {
			rec.TransactionType = *req.TransactionType
		}
		if req.Amount != nil {
			rec.Amount = *req.Amount
		}
		if req.Tax != nil {
			rec.Tax = *req.Tax
		}
		if req.Category != nil {
			rec.Category = *req.Category
		}
		if req.Note != nil {
			rec.Note = *req.Note
		}
		if req.Date != nil {
			parsed, ok := parseDate(*req.Date)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
				return
			}
			rec.Date = parsed
		}
		// Save the patched record
		if err := db.Save(rec).Error; err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id":   requesterID, // Requester user ID
				"record_id": rec.ID,      // Record ID
				"error":     err.Error(), // Error message
			}).Error("Record patch failed") // Log patch failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update record"})
			return
		}
		// Invalidate cached list pages for the record's owner
		invalidateListCache(c.Request.Context(), rdb, rec.UserID)
		// Return the patched record with its recomputed total
		c.JSON(http.StatusOK, toRecordResponse(rec))
	}
}

// DeleteRecordHandler deletes a record, authorization per the access policy
func DeleteRecordHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, isStaff, ok := requester(c) // Get identity from context
		if !ok {
			return
		}
		rec, ok := fetchRecord(c, db, requesterID, isStaff) // Lookup then authorize
		if !ok {
			return
		}
		// Delete the record
		if err := db.Delete(rec).Error; err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id":   requesterID, // Requester user ID
				"record_id": rec.ID,      // Record ID
				"error":     err.Error(), // Error message
			}).Error("Record delete failed") // Log delete failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record"})
			return
		}
		// Log successful deletion
		logrus.WithFields(logrus.Fields{
			"user_id":   requesterID, // Requester user ID
			"record_id": rec.ID,      // Record ID
			"owner_id":  rec.UserID,  // Owner user ID
		}).Info("Record deleted") // Log record deletion
		// Invalidate cached list pages for the record's owner
		invalidateListCache(c.Request.Context(), rdb, rec.UserID)
		c.Status(http.StatusNoContent) // Nothing to return
	}
}
