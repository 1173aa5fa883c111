package domain

import (
	"errors"
	"fmt"
)

// ErrInfeasibleSite is returned when a site cannot deliver any usable power.
var ErrInfeasibleSite = errors.New("infeasible site")

// DefaultEfficiency is the engine conversion efficiency used for area sizing.
const DefaultEfficiency = 0.1

// RequiredArea returns the harvesting area in m² needed to deliver targetPowerKW
// from a site with the given power density (W/m²) at the given efficiency.
func RequiredArea(targetPowerKW, powerDensity, efficiency float64) (float64, error) {
	effective := powerDensity * efficiency
	if !(effective > 0) {
		return 0, fmt.Errorf("%w: effective power density %g W/m²", ErrInfeasibleSite, effective)
	}
	return targetPowerKW * 1000 / effective, nil
}
