package race

const (
	msgMissingName    = "Missing property name in categories parameter"
	msgMissingRange   = "Missing property range in categories parameter"
	msgMissingFirstID = "Missing property firstId in categories[].range parameter"
	msgMissingLastID  = "Missing property lastId in categories[].range parameter"
)

type Range struct {
	FirstID int `json:"firstId"`
	LastID  int `json:"lastId"`
}

// Contains reports whether id falls in [FirstID, LastID].
func (r Range) Contains(id int) bool {
	return id >= r.FirstID && id <= r.LastID
}

type Category struct {
	Name  string `json:"name"`
	Range Range  `json:"range"`
}

// RangeInput is the candidate shape of a category range as it comes from a
// config file or a request body. A nil field is a missing property.
type RangeInput struct {
	FirstID *int `json:"firstId,omitempty" yaml:"firstId,omitempty"`
	LastID  *int `json:"lastId,omitempty" yaml:"lastId,omitempty"`
}

// CategoryInput is the candidate shape of a category.
type CategoryInput struct {
	Name  *string     `json:"name,omitempty" yaml:"name,omitempty"`
	Range *RangeInput `json:"range,omitempty" yaml:"range,omitempty"`
}

// NewCategoryInput builds a fully populated candidate.
func NewCategoryInput(name string, firstID, lastID int) CategoryInput {
	return CategoryInput{
		Name:  &name,
		Range: &RangeInput{FirstID: &firstID, LastID: &lastID},
	}
}

func (c CategoryInput) hasName() bool {
	return c.Name != nil && *c.Name != ""
}

// CheckResult is the outcome of CheckCategories. Message holds the highest
// precedence failure only, Failed reflects every check.
type CheckResult struct {
	Failed  bool   `json:"err"`
	Message string `json:"message"`
}

// CheckCategories validates candidate categories in a fixed precedence:
// name, then range, then range.firstId, then range.lastId. The range bound
// checks only run when every candidate has a range.
func CheckCategories(categories []CategoryInput) CheckResult {
	namesOk, rangesOk := true, true
	for _, c := range categories {
		if !c.hasName() {
			namesOk = false
		}
		if c.Range == nil {
			rangesOk = false
		}
	}

	res := CheckResult{}
	if !namesOk {
		res.Failed = true
		res.Message = msgMissingName
	}
	if !rangesOk {
		res.Failed = true
		if res.Message == "" {
			res.Message = msgMissingRange
		}
		return res
	}

	firstOk, lastOk := true, true
	for _, c := range categories {
		if c.Range.FirstID == nil {
			firstOk = false
		}
		if c.Range.LastID == nil {
			lastOk = false
		}
	}
	if !firstOk {
		res.Failed = true
		if res.Message == "" {
			res.Message = msgMissingFirstID
		}
	}
	if !lastOk {
		res.Failed = true
		if res.Message == "" {
			res.Message = msgMissingLastID
		}
	}
	return res
}

// ValidateCategory checks a single candidate with the same precedence as
// CheckCategories and returns the concrete category.
func ValidateCategory(c CategoryInput) (Category, error) {
	switch {
	case !c.hasName():
		return Category{}, invalidArgument(msgMissingName)
	case c.Range == nil:
		return Category{}, invalidArgument(msgMissingRange)
	case c.Range.FirstID == nil:
		return Category{}, invalidArgument(msgMissingFirstID)
	case c.Range.LastID == nil:
		return Category{}, invalidArgument(msgMissingLastID)
	}
	return Category{
		Name:  *c.Name,
		Range: Range{FirstID: *c.Range.FirstID, LastID: *c.Range.LastID},
	}, nil
}
