package orders

import (
	"context"
	"testing"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLookup(catalog map[string]PriceInfo) PriceLookup {
	return func(_ context.Context, ids []gocql.UUID) (map[gocql.UUID]PriceInfo, error) {
		result := make(map[gocql.UUID]PriceInfo)
		for _, id := range ids {
			if info, ok := catalog[id.String()]; ok {
				result[id] = info
			}
		}
		return result, nil
	}
}

func validInput(items ...RawOrderItem) RawOrderInput {
	return RawOrderInput{
		CustomerName:  "Анна Иванова",
		CustomerEmail: "anna@example.com",
		CustomerPhone: "+375 (29) 123-45-67",
		Items:         items,
	}
}

func TestValidateAndPriceIgnoresClientPrice(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{
		pid: {Name: "Robe en soie", Price: 50.00},
	})

	// Le client prétend payer 1.00 l'unité
	raw := validInput(RawOrderItem{
		ProductID:    pid,
		ProductName:  "fausse robe",
		ProductPrice: 1.00,
		Quantity:     2,
	})

	v, err := ValidateAndPrice(context.Background(), raw, lookup)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)

	assert.Equal(t, 100.00, v.TotalPrice)
	assert.Equal(t, 50.00, v.Items[0].ProductPrice)
	// Le nom soumis est lui aussi remplacé par celui du catalogue
	assert.Equal(t, "Robe en soie", v.Items[0].ProductName)
}

func TestValidateAndPriceClampsQuantity(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{pid: {Name: "Ceinture", Price: 10.00}})

	cases := []struct {
		submitted int
		expected  int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{100, 100},
		{101, 100},
		{9999, 100},
	}

	for _, tc := range cases {
		raw := validInput(RawOrderItem{ProductID: pid, Quantity: tc.submitted})
		v, err := ValidateAndPrice(context.Background(), raw, lookup)
		require.NoError(t, err, "quantité %d", tc.submitted)
		assert.Equal(t, tc.expected, v.Items[0].Quantity, "quantité %d", tc.submitted)
		assert.Equal(t, 10.00*float64(tc.expected), v.TotalPrice)
	}
}

func TestValidateAndPriceEmptyCart(t *testing.T) {
	raw := validInput()
	_, err := ValidateAndPrice(context.Background(), raw, fixedLookup(nil))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, ErrCodeEmptyCart, vErr.Code)
}

func TestValidateAndPriceProductNotFound(t *testing.T) {
	known := uuid.NewString()
	unknown := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{known: {Name: "Jupe", Price: 35.00}})

	raw := validInput(
		RawOrderItem{ProductID: known, Quantity: 1},
		RawOrderItem{ProductID: unknown, Quantity: 1},
	)

	_, err := ValidateAndPrice(context.Background(), raw, lookup)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, ErrCodeProductNotFound, vErr.Code)
}

func TestValidateAndPriceRejectsBadEmail(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{pid: {Name: "Sac", Price: 80.00}})

	for _, email := range []string{"", "pas-un-email", "a@", "@b.com", "deux mots@x.by"} {
		raw := validInput(RawOrderItem{ProductID: pid, Quantity: 1})
		raw.CustomerEmail = email

		_, err := ValidateAndPrice(context.Background(), raw, lookup)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "email %q", email)
		assert.Equal(t, "customer_email", vErr.Field)
	}
}

func TestValidateAndPricePhoneNormalization(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{pid: {Name: "Manteau", Price: 200.00}})

	raw := validInput(RawOrderItem{ProductID: pid, Quantity: 1})
	raw.CustomerPhone = "+375 (29) 123-45-67"

	v, err := ValidateAndPrice(context.Background(), raw, lookup)
	require.NoError(t, err)
	assert.Equal(t, "+375291234567", v.CustomerPhone)

	for _, phone := range []string{"12345678", "1234567890123456", "29-ABC-45-67", ""} {
		raw.CustomerPhone = phone
		_, err := ValidateAndPrice(context.Background(), raw, lookup)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "téléphone %q", phone)
		assert.Equal(t, "customer_phone", vErr.Field)
	}
}

func TestValidateAndPriceRejectsControlCharacters(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{pid: {Name: "Écharpe", Price: 25.00}})

	raw := validInput(RawOrderItem{ProductID: pid, Quantity: 1})
	raw.CustomerName = "Анна\x00Иванова"

	_, err := ValidateAndPrice(context.Background(), raw, lookup)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "customer_name", vErr.Field)
}

func TestValidateAndPriceRejectsBadEnums(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{pid: {Name: "Chapeau", Price: 40.00}})

	raw := validInput(RawOrderItem{ProductID: pid, Quantity: 1})
	raw.DeliveryMethod = "téléportation"
	_, err := ValidateAndPrice(context.Background(), raw, lookup)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "delivery_method", vErr.Field)

	raw = validInput(RawOrderItem{ProductID: pid, Quantity: 1})
	raw.PaymentMethod = "troc"
	_, err = ValidateAndPrice(context.Background(), raw, lookup)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "payment_method", vErr.Field)
}

func TestValidateAndPriceDefaults(t *testing.T) {
	pid := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{pid: {Name: "Gants", Price: 15.00}})

	raw := validInput(RawOrderItem{ProductID: pid, Quantity: 1})
	v, err := ValidateAndPrice(context.Background(), raw, lookup)
	require.NoError(t, err)

	assert.Equal(t, "delivery", v.DeliveryMethod)
	assert.Equal(t, "webpay", v.PaymentMethod)
	assert.Equal(t, "Уточняется", v.DeliveryAddress)
}

func TestValidateAndPriceRoundsHalfUp(t *testing.T) {
	p1 := uuid.NewString()
	p2 := uuid.NewString()
	lookup := fixedLookup(map[string]PriceInfo{
		p1: {Name: "Broche", Price: 10.005},
		p2: {Name: "Badge", Price: 0.10},
	})

	raw := validInput(
		RawOrderItem{ProductID: p1, Quantity: 1},
		RawOrderItem{ProductID: p2, Quantity: 3},
	)
	v, err := ValidateAndPrice(context.Background(), raw, lookup)
	require.NoError(t, err)

	// 10.005 + 0.30 = 10.305 → arrondi commercial à 10.31
	assert.Equal(t, 10.31, v.TotalPrice)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.30, Round2(0.1+0.2))
	assert.Equal(t, 2.35, Round2(2.345))
	assert.Equal(t, 100.00, Round2(100.004))
	assert.Equal(t, 100.01, Round2(100.005))

	// Demi-centime stocké sous le demi binaire : descend. L'arrondi suit la
	// valeur float64 réelle, pas le littéral décimal.
	assert.Equal(t, 1.00, Round2(1.005))
}
