package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ProjectProcessed("downloaded")
	m.ProjectProcessed("downloaded")
	m.ProjectProcessed("error")
	m.ProjectProcessed("")
	m.ImageDownloaded()
	m.ImageFailed()
	m.DiscoveryRows("kept", 5)
	m.DiscoveryRows("delete", 2)
	m.DiscoveryRows("kept", 0)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.projectsProcessed.WithLabelValues("downloaded")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.projectsProcessed.WithLabelValues("error")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.projectsProcessed.WithLabelValues("empty")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.imagesDownloaded))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.imagesFailed))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.discoveryRows.WithLabelValues("kept")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.discoveryRows.WithLabelValues("delete")))
}

func TestNilReceiverSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ProjectProcessed("downloaded")
		m.ImageDownloaded()
		m.ImageFailed()
		m.DiscoveryRows("kept", 1)
	})
}
