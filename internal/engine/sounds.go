package engine

import "sound-engine/internal/soundbank"

// Sound IDs the demo plays. The sound catalog must describe each of them.
const (
	SndMotor soundbank.ID = "SND_MOTOR"
	SndDrip  soundbank.ID = "SND_DRIP"
	SndBell  soundbank.ID = "SND_BELL"
	SndStep  soundbank.ID = "SND_STEP"
	SndClick soundbank.ID = "SND_CLICK"
)

// SoundIDs lists every ID known to the catalog parser.
var SoundIDs = []soundbank.ID{SndMotor, SndDrip, SndBell, SndStep, SndClick}
