package mockdashboard

import (
	"github.com/Alkira-Consulting/skylight-web/internal/service"
)

// Interface compliance check
var _ service.DashboardService = &Dashboard{}
