package domain

// Result is the outcome of a single resolution strategy.
// Exactly one of three states holds: found (ImageURL set), empty, or failed (Err set).
type Result struct {
	ImageURL string
	Err      error
}

// Found returns a successful Result.
func Found(imageURL string) Result {
	if imageURL == "" {
		return Result{}
	}
	return Result{ImageURL: imageURL}
}

// Empty returns a Result for a strategy that ran cleanly and found nothing.
func Empty() Result {
	return Result{}
}

// Failed returns a Result for a strategy that could not complete.
func Failed(err error) Result {
	return Result{Err: err}
}

// OK reports whether the strategy produced an image.
func (r Result) OK() bool {
	return r.ImageURL != ""
}
