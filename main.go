package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// PlanRequest is the JSON body accepted by /plan and /planLive. Zero-valued
// optional fields fall back to the planner defaults; omitting obstacles uses
// the obstacle set loaded at startup.
type PlanRequest struct {
	Config
	Seed          *int64 `json:"seed,omitempty"`          // fixed RNG seed for reproducible runs
	SnapshotEvery int    `json:"snapshotEvery,omitempty"` // /planLive: iterations between snapshots
}

// PlanResponse is the JSON result of a planning run
type PlanResponse struct {
	RunID      string  `json:"runId"`
	Success    bool    `json:"success"`
	Path       []Point `json:"path"` // start-first
	PathLength float64 `json:"pathLength,omitempty"`
	NumNodes   int     `json:"numNodes"`
	Iterations int     `json:"iterations"`
	Message    string  `json:"message,omitempty"`
}

// Planner defaults, matching the reference scenario parameters
const (
	defaultStepLength     = 0.5
	defaultGoalSampleRate = 10
	defaultMaxIterations  = 200
	defaultSnapshotEvery  = 10
)

var (
	defaultObstacles []Obstacle
	obstaclesMutex   sync.RWMutex
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// applyDefaults fills the optional planner parameters and the startup
// obstacle set into a request
func applyDefaults(req *PlanRequest) {
	if req.StepLength == 0 {
		req.StepLength = defaultStepLength
	}
	if req.GoalSampleRate == 0 {
		req.GoalSampleRate = defaultGoalSampleRate
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = defaultMaxIterations
	}
	if req.SnapshotEvery <= 0 {
		req.SnapshotEvery = defaultSnapshotEvery
	}
	if req.Obstacles == nil {
		obstaclesMutex.RLock()
		req.Obstacles = defaultObstacles
		obstaclesMutex.RUnlock()
	}
}

// newRunRNG builds the planner's random source, seeded from the request when
// a seed is given so clients can reproduce runs
func newRunRNG(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// POST /plan - run a full planning query and return the best path
func planHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("📍 Plan request received")

	if r.Method != http.MethodPost {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	applyDefaults(&req)

	runID := uuid.NewString()
	log.Printf("   Run:   %s\n", runID)
	log.Printf("   Start: (%.4f, %.4f)\n", req.Start.X, req.Start.Y)
	log.Printf("   Goal:  (%.4f, %.4f)\n", req.Goal.X, req.Goal.Y)
	log.Printf("   Obstacles: %d, budget: %d iterations\n", len(req.Obstacles), req.MaxIterations)

	planner, err := NewPlanner(req.Config, newRunRNG(req.Seed))
	if err != nil {
		log.Printf("❌ %v\n", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Println("========================================")
		return
	}

	start := time.Now()
	result := planner.Plan()
	elapsed := time.Since(start)

	response := PlanResponse{
		RunID:      runID,
		Success:    result.Found,
		NumNodes:   result.NodeCount,
		Iterations: result.Iterations,
	}

	if !result.Found {
		log.Println("❌ No path found within the iteration budget")
		response.Message = "No path found within the iteration budget"
	} else {
		response.Path = ReversePath(result.Path)
		response.PathLength = result.Cost
		log.Printf("✅ Path found with %d waypoints\n", len(response.Path))
		log.Printf("   Length: %.4f units, tree size: %d nodes\n", result.Cost, result.NodeCount)
		log.Printf("   ⏱️  Plan time: %.2f ms\n", float64(elapsed.Microseconds())/1000)
	}

	if result.Found && r.URL.Query().Get("format") == "geojson" {
		data, err := PathGeoJSON(response.Path)
		if err != nil {
			log.Printf("❌ GeoJSON encoding failed: %v\n", err)
			http.Error(w, "GeoJSON encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(data)
		log.Println("========================================")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
	log.Println("========================================")
}

// GET /planLive - websocket endpoint: reads one plan request, streams tree
// snapshots while the planner runs, then sends the final result
func planLiveHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Websocket upgrade failed: %v\n", err)
		return
	}
	defer conn.Close()

	var req PlanRequest
	if err := conn.ReadJSON(&req); err != nil {
		log.Printf("❌ Invalid live plan request: %v\n", err)
		return
	}
	applyDefaults(&req)

	runID := uuid.NewString()
	log.Printf("📡 Live plan %s: (%.2f, %.2f) -> (%.2f, %.2f)\n",
		runID, req.Start.X, req.Start.Y, req.Goal.X, req.Goal.Y)

	planner, err := NewPlanner(req.Config, newRunRNG(req.Seed))
	if err != nil {
		conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	planner.SetObserver(func(snap Snapshot) {
		last := snap.Iteration == req.MaxIterations-1
		if snap.Iteration%req.SnapshotEvery != 0 && !last {
			return
		}
		if err := conn.WriteJSON(snap); err != nil {
			log.Printf("⚠️  Snapshot write failed, client gone: %v\n", err)
		}
	})

	result := planner.Plan()

	response := PlanResponse{
		RunID:      runID,
		Success:    result.Found,
		NumNodes:   result.NodeCount,
		Iterations: result.Iterations,
	}
	if result.Found {
		response.Path = ReversePath(result.Path)
		response.PathLength = result.Cost
	} else {
		response.Message = "No path found within the iteration budget"
	}

	if err := conn.WriteJSON(response); err != nil {
		log.Printf("⚠️  Result write failed: %v\n", err)
	}
	log.Printf("📡 Live plan %s done (found=%v)\n", runID, result.Found)
}

// GET /health - Health check endpoint
func healthHandler(w http.ResponseWriter, r *http.Request) {
	obstaclesMutex.RLock()
	numObstacles := len(defaultObstacles)
	obstaclesMutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "ready",
		"numObstacles": numObstacles,
	})
}

func main() {
	log.Println("========================================")
	log.Println("🚀 Informed RRT* Planner Server")
	log.Println("========================================")
	log.Println("Checking for obstacle GeoJSON files...")

	if obstacles, err := LoadObstaclesFromDir("obstacles"); err == nil && len(obstacles) > 0 {
		obstaclesMutex.Lock()
		defaultObstacles = obstacles
		obstaclesMutex.Unlock()
		log.Printf("✅ Loaded %d default obstacles\n", len(obstacles))
	} else {
		log.Println("ℹ️  No default obstacles loaded (requests must supply their own)")
	}
	log.Println("")

	http.HandleFunc("/plan", corsMiddleware(planHandler))
	http.HandleFunc("/planLive", planLiveHandler)
	http.HandleFunc("/health", corsMiddleware(healthHandler))

	log.Println("Server starting on :8080")
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /plan      - Run a planning query (add ?format=geojson for a GeoJSON path)")
	log.Println("  GET  /planLive  - Websocket: stream tree snapshots while planning")
	log.Println("  GET  /health    - Check server status")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")
	log.Println("")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal(err)
	}
}
