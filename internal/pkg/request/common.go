package request

// ByIDRequest binds a numeric :id path parameter.
type ByIDRequest struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}
