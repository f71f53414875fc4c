package orders

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRef(t *testing.T) {
	id, err := gocql.ParseUUID("1a2b3c4d-0000-1000-8000-00805f9b34fb")
	require.NoError(t, err)

	assert.Equal(t, "ORDER-1A2B3C4D", OrderRef(id))
}

func TestNormalizeOrderRef(t *testing.T) {
	// Avec ou sans tag, casse quelconque → clé canonique majuscule
	for _, ref := range []string{"ORDER-1A2B3C4D", "order-1a2b3c4d", "1a2b3c4d", "  ORDER-1a2B3c4D "} {
		key, err := NormalizeOrderRef(ref)
		require.NoError(t, err, "ref %q", ref)
		assert.Equal(t, "1A2B3C4D", key)
	}

	for _, ref := range []string{"", "ORDER-", "ORDER-123", "ORDER-1A2B3C4D9", "ORDER-NOPEHEX!", "ZZZZZZZZ"} {
		_, err := NormalizeOrderRef(ref)
		assert.Error(t, err, "ref %q", ref)
	}
}

func TestAppendAuditComment(t *testing.T) {
	audit := "WebPay TID: 123, RRN: 456, RC: 00 - Successful"

	// Premier ajout
	assert.Equal(t, audit, appendAuditComment("", audit))

	// L'historique est conservé, la nouvelle ligne est ajoutée derrière
	merged := appendAuditComment("Клиент просил позвонить", audit)
	assert.Equal(t, "Клиент просил позвонить\n"+audit, merged)

	// Relivraison du même webhook : pas de doublon
	assert.Equal(t, merged, appendAuditComment(merged, audit))

	// Commentaire d'audit vide : no-op
	assert.Equal(t, merged, appendAuditComment(merged, ""))
}
