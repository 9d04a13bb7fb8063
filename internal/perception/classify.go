package perception

import "fmt"

// ClassifierThresholds holds every classification cutoff. All values are
// injected from configuration so they can be tuned against a calibration
// dataset without rebuilding.
type ClassifierThresholds struct {
	// MinClusterPoints is the minimum support for a cluster to be emitted
	// as a detection at all; anything smaller is sensor noise.
	MinClusterPoints int

	// Pedestrian rule: short footprint, enough points.
	PedestrianHeightMax    float64 // metres
	PedestrianFootprintMax float64 // m²
	PedestrianMinPoints    int

	// Cyclist rule: mid height band, elongated footprint.
	CyclistHeightMin     float64 // metres
	CyclistHeightMax     float64 // metres
	CyclistElongationMin float64 // longer extent / shorter extent

	// Car rule: footprint and height both in band.
	CarFootprintMin float64 // m²
	CarFootprintMax float64 // m²
	CarHeightMin    float64 // metres
	CarHeightMax    float64 // metres
}

// DefaultClassifierThresholds returns cutoffs tuned for street scenes.
func DefaultClassifierThresholds() ClassifierThresholds {
	return ClassifierThresholds{
		MinClusterPoints: 20,

		PedestrianHeightMax:    2.2,
		PedestrianFootprintMax: 0.6,
		PedestrianMinPoints:    20,

		CyclistHeightMin:     0.8,
		CyclistHeightMax:     1.4,
		CyclistElongationMin: 2.5,

		CarFootprintMin: 3.0,
		CarFootprintMax: 15.0,
		CarHeightMin:    1.0,
		CarHeightMax:    2.5,
	}
}

// Validate checks the thresholds, returning a fatal configuration error
// on the first invalid field.
func (t ClassifierThresholds) Validate() error {
	if t.MinClusterPoints < 1 {
		return fmt.Errorf("classifier min_cluster_points must be >= 1, got %d", t.MinClusterPoints)
	}
	if t.PedestrianHeightMax <= 0 || t.PedestrianFootprintMax <= 0 {
		return fmt.Errorf("classifier pedestrian bounds must be > 0")
	}
	if t.PedestrianMinPoints < 1 {
		return fmt.Errorf("classifier pedestrian_min_points must be >= 1, got %d", t.PedestrianMinPoints)
	}
	if t.CyclistHeightMin < 0 || t.CyclistHeightMax <= t.CyclistHeightMin {
		return fmt.Errorf("classifier cyclist height band [%f, %f] is empty", t.CyclistHeightMin, t.CyclistHeightMax)
	}
	if t.CyclistElongationMin <= 1 {
		return fmt.Errorf("classifier cyclist_elongation_min must be > 1, got %f", t.CyclistElongationMin)
	}
	if t.CarFootprintMin < 0 || t.CarFootprintMax <= t.CarFootprintMin {
		return fmt.Errorf("classifier car footprint band [%f, %f] is empty", t.CarFootprintMin, t.CarFootprintMax)
	}
	if t.CarHeightMin < 0 || t.CarHeightMax <= t.CarHeightMin {
		return fmt.Errorf("classifier car height band [%f, %f] is empty", t.CarHeightMin, t.CarHeightMax)
	}
	return nil
}

// Classifier assigns semantic class labels to detections using an ordered
// rule list evaluated top-down; the first matching rule wins.
type Classifier struct {
	thresholds ClassifierThresholds
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(thresholds ClassifierThresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Thresholds returns the active cutoffs.
func (c *Classifier) Thresholds() ClassifierThresholds { return c.thresholds }

// Classify returns the class label for a detection's geometry.
//
// Rules, in priority order:
//  1. pedestrian: short, small footprint, enough points
//  2. cyclist: mid height band, elongated footprint
//  3. car: footprint and height both in the vehicle band
//  4. unknown
func (c *Classifier) Classify(d Detection) ClassLabel {
	t := c.thresholds

	if d.Height < t.PedestrianHeightMax &&
		d.Footprint() < t.PedestrianFootprintMax &&
		d.PointsCount >= t.PedestrianMinPoints {
		return ClassPedestrian
	}

	if d.Height >= t.CyclistHeightMin && d.Height <= t.CyclistHeightMax &&
		elongation(d.Length, d.Width) > t.CyclistElongationMin {
		return ClassCyclist
	}

	if fp := d.Footprint(); fp >= t.CarFootprintMin && fp <= t.CarFootprintMax &&
		d.Height >= t.CarHeightMin && d.Height <= t.CarHeightMax {
		return ClassCar
	}

	return ClassUnknown
}

// ClassifyClusters extracts features for each cluster, discards clusters
// below the minimum-support threshold, and returns classified detections.
// Detection order follows cluster order, so output stays deterministic for
// a fixed clustering result.
func (c *Classifier) ClassifyClusters(frameIndex int, points []Point, clusters []Cluster) []Detection {
	detections := make([]Detection, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster.PointIndices) < c.thresholds.MinClusterPoints {
			continue // Sensor noise, never emitted
		}
		d := ExtractDetection(frameIndex, points, cluster)
		d.Class = c.Classify(d)
		detections = append(detections, d)
	}
	return detections
}

// elongation returns the orientation-independent extent ratio
// (longer / shorter), so a cyclist travelling along either axis scores
// the same.
func elongation(length, width float64) float64 {
	longer, shorter := length, width
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if shorter <= 0 {
		return 0
	}
	return longer / shorter
}
