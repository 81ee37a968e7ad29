package world

const (
	ArenaWidth  = 1000.0
	ArenaHeight = 800.0
	GridSize    = 20.0

	CarWidth  = 30.0
	CarHeight = 40.0

	ObstacleSize           = 40.0
	NumObstacles           = 15
	MaxObstacles           = 200
	ObstacleMinFromCars    = 100.0
	ObstacleMinBetween     = ObstacleSize * 1.5
	ObstacleAttemptsFactor = 20

	RayStep = 5.0 // px between line-of-sight samples

	BounceObstacle = -0.5
	DampObstacle   = 0.8
	BounceEdge     = -0.3
	DampEdge       = 0.8
)
