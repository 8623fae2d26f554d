package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/http/response"
)

type CatalogHandler struct {
	cat    *catalog.Catalog
	engine string
}

func NewCatalogHandler(cat *catalog.Catalog, engineVersion string) *CatalogHandler {
	return &CatalogHandler{cat: cat, engine: engineVersion}
}

type frameworkSummary struct {
	Key        string              `json:"key"`
	Name       string              `json:"name"`
	Kind       assessment.FormKind `json:"kind"`
	Curriculum string              `json:"curriculum,omitempty"`
	Domains    []string            `json:"domains"`
}

type catalogSummary struct {
	Version           string             `json:"version"`
	EngineVersion     string             `json:"engine_version"`
	DefaultCurriculum string             `json:"default_curriculum"`
	Curricula         []string           `json:"curricula"`
	Frameworks        []frameworkSummary `json:"frameworks"`
	Careers           int                `json:"careers"`
}

// GET /api/catalog
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	if h.cat == nil {
		response.RespondAssessmentError(c, assessment.CatalogErr("catalog is not loaded", nil))
		return
	}
	out := catalogSummary{
		Version:           h.cat.Version,
		EngineVersion:     h.engine,
		DefaultCurriculum: h.cat.DefaultCurriculum,
		Curricula:         h.cat.CurriculumNames(),
		Frameworks:        make([]frameworkSummary, 0, len(h.cat.Frameworks)),
		Careers:           len(h.cat.Careers),
	}
	for _, fw := range h.cat.Frameworks {
		fs := frameworkSummary{Key: fw.Key, Name: fw.Name, Kind: fw.Kind, Curriculum: fw.Curriculum}
		for _, d := range fw.Domains {
			fs.Domains = append(fs.Domains, d.Name)
		}
		out.Frameworks = append(out.Frameworks, fs)
	}
	c.JSON(http.StatusOK, out)
}
