package ballotservice

import (
	"log/slog"

	httpadapter "tabroom/contexts/tab-core/ballot-service/adapters/http"
	"tabroom/contexts/tab-core/ballot-service/application/commands"
	"tabroom/contexts/tab-core/ballot-service/application/queries"
	"tabroom/contexts/tab-core/ballot-service/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Enter      commands.EnterBallotUseCase
	Confirm    commands.ConfirmBallotUseCase
	Postpone   commands.TogglePostponedUseCase
	Checkin    commands.CheckinUseCase
	PublicGate commands.PublicGateUseCase
	Queries    queries.QueryUseCase
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Formatter  ports.RelativeTimeFormatter
	Logger     *slog.Logger

	AllowSelfConfirm   bool
	HistogramIntervals int
	RecentResultsLimit int
}

func NewModule(deps Dependencies) Module {
	enter := commands.EnterBallotUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	confirm := commands.ConfirmBallotUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	postpone := commands.TogglePostponedUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	checkin := commands.CheckinUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	publicGate := commands.PublicGateUseCase{
		Repository: deps.Repository,
		Enter:      enter,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		Formatter:  deps.Formatter,
		Logger:     deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Enter:      enter,
			Confirm:    confirm,
			Postpone:   postpone,
			Checkin:    checkin,
			PublicGate: publicGate,
			Queries:    queryUseCase,
			Logger:     deps.Logger,

			AllowSelfConfirm:   deps.AllowSelfConfirm,
			HistogramIntervals: deps.HistogramIntervals,
			RecentResultsLimit: deps.RecentResultsLimit,
		},
		Enter:      enter,
		Confirm:    confirm,
		Postpone:   postpone,
		Checkin:    checkin,
		PublicGate: publicGate,
		Queries:    queryUseCase,
	}
}
