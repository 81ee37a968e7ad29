package ai

import "time"

const (
	DiagonalCost    = 1.414
	ObstaclePadding = 1 // cells blocked around each obstacle

	PathUpdateTicks      = 10
	WaypointReachAttack  = 25.0
	AttackerMaxSpeed     = 3.5
	AttackerAvoidWeight  = 0.6
	AttackerAvoidBoost   = 1.5
	AttackerAvoidRadiusK = 2.0 // x car width

	DefenderMaxSpeed     = 4.0
	DefenderAvoidRadiusK = 2.5 // x car width
	CoverAvoidModifier   = 0.2
	DefenderStopDistance = 10.0

	PredictionSteps    = 60
	PredictionInterval = 5
	PredictorHistory   = 10

	SafeDistance           = 100.0
	HideTriggerDistance    = 400.0
	VeryCloseDistance      = 80.0
	BufferBehindObstacle   = 40.0 * 1.5 // car height x 1.5
	MaxHideSearchObstacles = 5
	ObstacleWeightDist     = 0.6
	ObstacleWeightAngle    = 0.4
	HideReachDistance      = 20.0
	HideEdgeMargin         = 10.0
	PatrolReachDistance    = 30.0
	ReturnReachDistance    = 50.0
	MinStateTime           = 500 * time.Millisecond

	PatrolPoints = 4
	PatrolMargin = 150.0
)
