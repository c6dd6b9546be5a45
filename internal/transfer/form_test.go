package transfer

import (
	"errors"
	"testing"

	"github.com/erazemk/invman/internal/model"
)

func readyForm() *Form {
	f := &Form{}
	f.SetSourceSubInventory(1)
	f.SetSourceLocator(10)
	f.SetSourceCategory(100)
	f.SetProduct(model.Product{ID: 5, Name: "M8 bolt", Stock: 10})
	f.SetDestinationSubInventory(2)
	f.SetDestinationLocator(20)
	f.SetQuantity(3)
	return f
}

func TestFormStages(t *testing.T) {
	f := &Form{}
	steps := []struct {
		apply func()
		want  Stage
	}{
		{func() {}, StageSourceSubInventory},
		{func() { f.SetSourceSubInventory(1) }, StageSourceLocator},
		{func() { f.SetSourceLocator(10) }, StageProduct},
		{func() { f.SetSourceCategory(100) }, StageProduct},
		{func() { f.SetProduct(model.Product{ID: 5, Stock: 10}) }, StageDestinationSubInventory},
		{func() { f.SetDestinationSubInventory(2) }, StageDestinationLocator},
		{func() { f.SetDestinationLocator(20) }, StageQuantity},
		{func() { f.SetQuantity(3) }, StageReady},
	}
	for i, s := range steps {
		s.apply()
		if got := f.Stage(); got != s.want {
			t.Fatalf("step %d: stage = %s, want %s", i, got, s.want)
		}
	}
}

func TestFormDownstreamResets(t *testing.T) {
	tests := []struct {
		name   string
		change func(*Form)
		check  func(*Form) bool
		stage  Stage
	}{
		{"source sub-inventory", func(f *Form) { f.SetSourceSubInventory(9) },
			func(f *Form) bool {
				return f.SourceLocator == 0 && f.SourceCategory == 0 && f.ProductID == 0 && f.DestinationLocator == 20
			}, StageSourceLocator},
		{"source locator", func(f *Form) { f.SetSourceLocator(11) },
			func(f *Form) bool { return f.SourceSubInventory == 1 && f.SourceCategory == 0 && f.ProductID == 0 },
			StageProduct},
		{"source category", func(f *Form) { f.SetSourceCategory(101) },
			func(f *Form) bool { return f.SourceLocator == 10 && f.ProductID == 0 && f.ProductStock() == 0 },
			StageProduct},
		{"destination sub-inventory", func(f *Form) { f.SetDestinationSubInventory(3) },
			func(f *Form) bool { return f.DestinationLocator == 0 && f.DestinationCategory == 0 && f.ProductID == 5 },
			StageDestinationLocator},
		{"destination locator", func(f *Form) { f.SetDestinationLocator(21) },
			func(f *Form) bool { return f.DestinationCategory == 0 && f.DestinationSubInventory == 2 },
			StageReady},
		{"same value keeps downstream", func(f *Form) { f.SetSourceLocator(10) },
			func(f *Form) bool { return f.ProductID == 5 && f.SourceCategory == 100 },
			StageReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := readyForm()
			f.SetDestinationCategory(200)
			tt.change(f)
			if !tt.check(f) {
				t.Errorf("unexpected form after change: %+v", f)
			}
			if got := f.Stage(); got != tt.stage {
				t.Errorf("stage = %s, want %s", got, tt.stage)
			}
		})
	}
}

func TestFormValidate(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		if err := readyForm().Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		f := readyForm()
		f.SetSourceCategory(0)
		var missing *MissingFieldError
		if err := f.Validate(); !errors.As(err, &missing) || missing.Field != "a product" {
			t.Errorf("Validate = %v, want missing product", err)
		}
	})

	t.Run("source category optional", func(t *testing.T) {
		f := &Form{}
		f.SetSourceSubInventory(1)
		f.SetSourceLocator(10)
		f.SetProduct(model.Product{ID: 5, Stock: 10})
		f.SetDestinationSubInventory(2)
		f.SetDestinationLocator(20)
		f.SetQuantity(3)
		if f.Stage() != StageReady {
			t.Errorf("stage = %s, want ready", f.Stage())
		}
		if err := f.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
		req, err := f.Request()
		if err != nil || req.SourceCategory != nil {
			t.Errorf("Request = %+v, %v", req, err)
		}
	})

	t.Run("same location before missing fields", func(t *testing.T) {
		f := &Form{SourceLocator: 1, ProductID: 5, DestinationLocator: 1, Quantity: 3}
		if err := f.Validate(); !errors.Is(err, ErrSameLocation) {
			t.Errorf("Validate = %v, want ErrSameLocation", err)
		}
	})

	t.Run("locators without sub-inventories", func(t *testing.T) {
		f := &Form{SourceLocator: 1, ProductID: 5, DestinationLocator: 2, Quantity: 3}
		if err := f.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
		if f.Stage() != StageReady {
			t.Errorf("stage = %s, want ready", f.Stage())
		}
	})

	t.Run("same location", func(t *testing.T) {
		f := readyForm()
		f.SetDestinationLocator(10)
		err := f.Validate()
		if !errors.Is(err, ErrSameLocation) {
			t.Fatalf("Validate = %v, want ErrSameLocation", err)
		}
		if err.Error() != "Source and destination locations cannot be the same location" {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("quantity", func(t *testing.T) {
		for _, q := range []int{0, -2} {
			f := readyForm()
			f.SetQuantity(q)
			if err := f.Validate(); !errors.Is(err, ErrInvalidQuantity) {
				t.Errorf("Validate(quantity %d) = %v, want ErrInvalidQuantity", q, err)
			}
			if f.Stage() != StageQuantity {
				t.Errorf("stage with quantity %d = %s, want quantity", q, f.Stage())
			}
		}
	})

	t.Run("stock", func(t *testing.T) {
		f := readyForm()
		f.SetQuantity(10)
		if err := f.Validate(); err != nil {
			t.Errorf("quantity equal to stock: %v", err)
		}
		f.SetQuantity(11)
		var stockErr *StockError
		if err := f.Validate(); !errors.As(err, &stockErr) || stockErr.Available != 10 || stockErr.Requested != 11 {
			t.Errorf("Validate = %v, want StockError 11/10", err)
		}
	})
}

func TestFormRequest(t *testing.T) {
	f := readyForm()
	f.SetDestinationCategory(200)
	f.Notes = "line 2"

	req, err := f.Request()
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.ProductID != 5 || req.SourceLocation != 10 || req.DestinationLocation != 20 || req.Quantity != 3 {
		t.Errorf("request = %+v", req)
	}
	if req.SourceCategory == nil || *req.SourceCategory != 100 || req.DestinationCategory == nil || *req.DestinationCategory != 200 {
		t.Errorf("categories = %v, %v", req.SourceCategory, req.DestinationCategory)
	}

	f.SetDestinationCategory(0)
	req, _ = f.Request()
	if req.DestinationCategory != nil {
		t.Errorf("unset destination category sent as %d", *req.DestinationCategory)
	}
}
