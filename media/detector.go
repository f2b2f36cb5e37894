package media

import (
	"bufio"
	"fmt"
	"image"
	"log"
	"os"

	"gocv.io/x/gocv"

	"github.com/visra-dev/visrabackend/models"
)

// Detector is the opaque annotator capability: given a stored image file it
// produces the ordered detection sequence for that image.
type Detector interface {
	Detect(imagePath string) ([]models.Detection, error)
	Close()
}

// NoopDetector satisfies Detector without a model, producing no detections.
type NoopDetector struct{}

func (NoopDetector) Detect(string) ([]models.Detection, error) { return nil, nil }
func (NoopDetector) Close()                                    {}

// DNNObjectDetector runs an SSD-style object detection network via gocv. The
// network output rows are [batch, classID, confidence, x1, y1, x2, y2] with
// coordinates normalized to the input image.
type DNNObjectDetector struct {
	Net     gocv.Net
	Enabled bool
	Labels  []string

	InputSizeW    int
	InputSizeH    int
	ScaleFactor   float64
	MeanVal       gocv.Scalar
	ConfThreshold float32
}

// NewDNNObjectDetector loads the DNN model and its class-label file.
func NewDNNObjectDetector(configPath, modelPath, labelsPath string, minConfidence float64) *DNNObjectDetector {
	if configPath == "" || modelPath == "" {
		log.Println("media.detector: config or model path is empty, disabling DNN detector")
		return &DNNObjectDetector{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		log.Printf("media.detector: ERROR loading network model: config=%s, model=%s", configPath, modelPath)
		return &DNNObjectDetector{Enabled: false}
	}

	labels, err := loadLabels(labelsPath)
	if err != nil {
		log.Printf("media.detector: ERROR loading labels from %s: %v", labelsPath, err)
		net.Close()
		return &DNNObjectDetector{Enabled: false}
	}
	log.Printf("media.detector: loaded object detection model with %d classes", len(labels))

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Println("media.detector: Set backend/target to CUDA")
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("media.detector: Set backend/target to CPU (Default)")
	}

	return &DNNObjectDetector{
		Net:           net,
		Enabled:       true,
		Labels:        labels,
		InputSizeW:    300,
		InputSizeH:    300,
		ScaleFactor:   1.0,
		MeanVal:       gocv.NewScalar(127.5, 127.5, 127.5, 0),
		ConfThreshold: float32(minConfidence),
	}
}

func loadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		labels = append(labels, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("label file %s is empty", path)
	}
	return labels, nil
}

func (d *DNNObjectDetector) Close() {
	if d != nil && d.Enabled {
		d.Net.Close()
		d.Enabled = false
	}
}

func (d *DNNObjectDetector) className(classID int) string {
	if classID >= 0 && classID < len(d.Labels) {
		return d.Labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Detect runs the network on the stored image and returns detections in
// network output order with pixel-space bounding boxes.
func (d *DNNObjectDetector) Detect(imagePath string) ([]models.Detection, error) {
	if d == nil || !d.Enabled {
		return nil, nil
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("failed to read image file for dnn: %s", imagePath)
	}
	defer img.Close()

	imgHeight := float32(img.Rows())
	imgWidth := float32(img.Cols())

	blob := gocv.BlobFromImage(img, d.ScaleFactor, image.Pt(d.InputSizeW, d.InputSizeH), d.MeanVal, false, false)
	defer blob.Close()

	d.Net.SetInput(blob, "")
	detectionsMat := d.Net.Forward("")
	defer detectionsMat.Close()

	var results []models.Detection

	sizes := detectionsMat.Size()
	if len(sizes) < 3 {
		log.Printf("media.detector: Error - Output matrix dimensions too small to parse: %v", sizes)
		return results, nil
	}
	numDetections := sizes[2]
	if numDetections == 0 {
		return results, nil
	}

	// reshape the Mat to 2D: [N, 7] for easier access with GetFloatAt(row, col)
	detectionsData := detectionsMat.Reshape(1, numDetections)
	defer detectionsData.Close()

	for i := 0; i < numDetections; i++ {
		confidence := detectionsData.GetFloatAt(i, 2)
		if confidence <= d.ConfThreshold {
			continue
		}

		classID := int(detectionsData.GetFloatAt(i, 1))

		xMin := detectionsData.GetFloatAt(i, 3) * imgWidth
		yMin := detectionsData.GetFloatAt(i, 4) * imgHeight
		xMax := detectionsData.GetFloatAt(i, 5) * imgWidth
		yMax := detectionsData.GetFloatAt(i, 6) * imgHeight

		xMin = max(0, xMin)
		yMin = max(0, yMin)
		xMax = min(imgWidth, xMax)
		yMax = min(imgHeight, yMax)

		if xMax > xMin && yMax > yMin {
			results = append(results, models.Detection{
				Class:      d.className(classID),
				Confidence: float64(confidence),
				BBox: models.BBox{
					X:      float64(xMin),
					Y:      float64(yMin),
					Width:  float64(xMax - xMin),
					Height: float64(yMax - yMin),
				},
			})
		}
	}

	return results, nil
}
