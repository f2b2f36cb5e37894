package workers

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/visra-dev/visrabackend/config"
	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/realtime"
	"github.com/visra-dev/visrabackend/repository"
	"github.com/visra-dev/visrabackend/utils"
)

// AnnotateJob asks the pool to run the full annotation pass for one image:
// EXIF metadata, thumbnail, object detections, address lookup.
type AnnotateJob struct {
	ImageID     string
	StoragePath string
}

// Geocoder resolves a GPS coordinate to a human-readable address. The
// default no-op leaves detection addresses empty.
type Geocoder interface {
	ReverseGeocode(lat, lng float64) (string, error)
}

type NoopGeocoder struct{}

func (NoopGeocoder) ReverseGeocode(float64, float64) (string, error) { return "", nil }

// Annotator is the worker pool driving images from queued through
// processing to done or failed.
type Annotator struct {
	JobQueue chan AnnotateJob
	Config   config.Config
	Images   repository.ImageRepository
	Store    media.Store
	Proc     *media.Processor
	Detector media.Detector
	Geocoder Geocoder
	Hub      *realtime.Hub
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex
}

func NewAnnotator(cfg config.Config, images repository.ImageRepository, store media.Store, detector media.Detector, geocoder Geocoder, hub *realtime.Hub, queueSize, numWorkers int) *Annotator {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if detector == nil {
		detector = media.NoopDetector{}
	}
	if geocoder == nil {
		geocoder = NoopGeocoder{}
	}
	a := &Annotator{
		JobQueue: make(chan AnnotateJob, queueSize),
		Config:   cfg,
		Images:   images,
		Store:    store,
		Proc:     media.NewProcessor(store),
		Detector: detector,
		Geocoder: geocoder,
		Hub:      hub,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
	}
	a.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go a.worker(i)
	}
	log.Printf("Started %d annotation worker(s) with queue size %d", numWorkers, queueSize)
	return a
}

func (a *Annotator) worker(id int) {
	defer a.Wg.Done()
	log.Printf("Annotation worker %d started", id)
	for {
		select {
		case job, ok := <-a.JobQueue:
			if !ok {
				log.Printf("Annotation worker %d stopping: Job queue closed", id)
				return
			}
			a.process(id, job)
			a.Mutex.Lock()
			delete(a.Pending, job.ImageID)
			a.Mutex.Unlock()
		case <-a.StopChan:
			log.Printf("Annotation worker %d stopping: Stop signal received", id)
			return
		}
	}
}

func (a *Annotator) process(workerID int, job AnnotateJob) {
	log.Printf("Worker %d: annotating image %s", workerID, job.ImageID)

	if err := a.Images.SetStatus(job.ImageID, database.StatusProcessing); err != nil {
		log.Printf("Worker %d: ERROR marking image %s processing: %v. Skipping job.", workerID, job.ImageID, err)
		return
	}
	a.notify(job.ImageID, database.StatusProcessing, "")

	meta, thumbPath, detections, taskErr := a.annotate(job)

	if err := a.Images.UpdateAnnotationResult(job.ImageID, meta, thumbPath, detections, taskErr); err != nil {
		log.Printf("Worker %d: ERROR recording annotation result for %s: %v", workerID, job.ImageID, err)
		return
	}

	if taskErr != nil {
		log.Printf("Worker %d: annotation failed for %s: %v", workerID, job.ImageID, taskErr)
		a.notify(job.ImageID, database.StatusFailed, taskErr.Error())
		return
	}
	log.Printf("Worker %d: annotation complete for %s: %d detection(s)", workerID, job.ImageID, len(detections))
	a.notify(job.ImageID, database.StatusDone, "")
}

// annotate performs the actual work; any sub-step failure fails the image as
// a whole so a done image always has consistent metadata and detections.
func (a *Annotator) annotate(job AnnotateJob) (*utils.Metadata, *string, []models.Detection, error) {
	fullPath, err := a.Store.GetFullPath(job.StoragePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to resolve stored image: %w", err)
	}

	meta, err := utils.GetImageMetadata(fullPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("metadata extraction failed: %w", err)
	}

	var thumbPathPtr *string
	img, err := media.OpenImage(fullPath)
	if err != nil {
		return meta, nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}
	thumbPath, err := a.Proc.GenerateThumbnail(img, job.ImageID, a.Config.ThumbnailMaxSize)
	if err != nil {
		return meta, nil, nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}
	thumbPathPtr = &thumbPath

	detections, err := a.Detector.Detect(fullPath)
	if err != nil {
		return meta, thumbPathPtr, nil, fmt.Errorf("detection failed: %w", err)
	}
	for i := range detections {
		if detections[i].ID == "" {
			detections[i].ID = uuid.NewString()
		}
	}
	a.fillAddresses(meta, detections)

	return meta, thumbPathPtr, detections, nil
}

func (a *Annotator) fillAddresses(meta *utils.Metadata, detections []models.Detection) {
	if meta == nil || meta.Latitude == nil || meta.Longitude == nil {
		return
	}
	address, err := a.Geocoder.ReverseGeocode(*meta.Latitude, *meta.Longitude)
	if err != nil {
		log.Printf("Worker: reverse geocode failed: %v", err)
		return
	}
	if address == "" {
		return
	}
	for i := range detections {
		detections[i].Address = &address
	}
}

func (a *Annotator) notify(imageID, status, errMsg string) {
	if a.Hub != nil {
		a.Hub.BroadcastImageStatus(imageID, status, errMsg)
	}
}

// QueueJob queues annotation for an image if not already pending
func (a *Annotator) QueueJob(job AnnotateJob) bool {
	a.Mutex.Lock()
	if a.Pending[job.ImageID] {
		a.Mutex.Unlock()
		return false
	}
	a.Pending[job.ImageID] = true
	a.Mutex.Unlock()

	select {
	case a.JobQueue <- job:
		return true
	default:
		log.Printf("WARNING: Annotation job queue full. Failed to queue image %s", job.ImageID)
		a.Mutex.Lock()
		delete(a.Pending, job.ImageID)
		a.Mutex.Unlock()
		return false
	}
}

func (a *Annotator) Stop() {
	log.Println("Stopping annotation workers...")
	close(a.StopChan)
	a.Wg.Wait()
	a.Detector.Close()
	log.Println("All annotation workers stopped")
}
