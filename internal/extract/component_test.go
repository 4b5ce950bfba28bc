package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bull/artifact-catalog/internal/catalog"
)

const salesDashboard = `import React, { useState, useEffect } from 'react';
import {
  LineChart,
  Line,
} from 'recharts';
import './styles.css';
import Button from '../components/Button';
import 'tailwindcss/tailwind.css';
import ReactAgain from 'react';

/**
 * Sales dashboard
 * Interactive overview of quarterly revenue.
 * @author someone
 */
export default function SalesDashboard() {
  const [open, setOpen] = useState(false);
  useEffect(() => {}, []);
  return <div className="p-4" onClick={() => setOpen(!open)}><LineChart /></div>;
}
`

func TestComponentTitle_ExportName(t *testing.T) {
	assert.Equal(t, "Sales Dashboard", ComponentTitle(salesDashboard, "sales-dashboard.tsx"))
	assert.Equal(t, "Pricing Card", ComponentTitle("export const PricingCard = () => null", "x.tsx"))
	assert.Equal(t, "Fetch Stats", ComponentTitle("export async function fetchStats() {}", "x.tsx"))
	assert.Equal(t, "Widget", ComponentTitle("export default Widget;", "x.tsx"))
}

func TestComponentTitle_SkipsKeywordExports(t *testing.T) {
	src := "export interface Props {}\nexport default function LoginForm() {}"
	assert.Equal(t, "Login Form", ComponentTitle(src, "x.tsx"))
}

func TestComponentTitle_CommentFallback(t *testing.T) {
	src := "/**\n * Revenue Tracker\n * Shows revenue\n */\nconst x = 1;\nexport default () => null;\n"
	assert.Equal(t, "Revenue Tracker", ComponentTitle(src, "tracker.tsx"))
}

func TestComponentTitle_FilenameFallback(t *testing.T) {
	assert.Equal(t, "My Widget", ComponentTitle("export default () => null", "my-widget.tsx"))
	assert.Equal(t, "User Profile Card", ComponentTitle("", "UserProfileCard.jsx"))
}

func TestComponentDescription(t *testing.T) {
	assert.Equal(t, "Interactive overview of quarterly revenue.", ComponentDescription(salesDashboard))

	tagged := "/**\n * Widget\n * Second line\n * @description Custom description\n */"
	assert.Equal(t, "Custom description", ComponentDescription(tagged))

	single := "/** Summary only */\nexport default function A() {}"
	assert.Equal(t, "", ComponentDescription(single))

	inline := "/** Title line\n * Body line */"
	assert.Equal(t, "Body line", ComponentDescription(inline))

	assert.Equal(t, "", ComponentDescription("const a = 1;"))
}

func TestComponentDependencies(t *testing.T) {
	deps := ComponentDependencies(salesDashboard)
	assert.Equal(t, []string{"react", "recharts", "tailwindcss/tailwind.css"}, deps)

	none := ComponentDependencies("import x from './local';\nimport y from '/abs/path';")
	assert.NotNil(t, none)
	assert.Empty(t, none)

	scoped := ComponentDependencies(`import * as Dialog from "@radix-ui/react-dialog";`)
	assert.Equal(t, []string{"@radix-ui/react-dialog"}, scoped)
}

func TestComponentTags(t *testing.T) {
	tags := ComponentTags(salesDashboard, "sales-dashboard.tsx")
	assert.Equal(t, []string{"state", "effect", "styled", "interactive", "chart", "button", "dashboard"}, tags)
}

func TestComponentTags_FilenameKeywords(t *testing.T) {
	tags := ComponentTags("", "AdminProfile.tsx")
	assert.Equal(t, []string{"profile", "admin"}, tags)

	withExtra := ComponentTags("", "pricing-table.tsx", "pricing", "admin", " ")
	assert.Equal(t, []string{"pricing"}, withExtra)
}

func TestGenerator_Component(t *testing.T) {
	g := NewGenerator(map[catalog.Kind][]string{catalog.KindComponent: {"sales"}})
	meta := g.GenerateMetadata(catalog.KindComponent, "sales-dashboard.tsx", []byte(salesDashboard))

	assert.Equal(t, "Sales Dashboard", meta.Title)
	assert.Contains(t, meta.Tags, "sales")
	assert.Equal(t, "dashboard", meta.Tags[len(meta.Tags)-2])
	assert.Equal(t, "Sales Dashboard Interactive overview of quarterly revenue. "+
		"state effect styled interactive chart button dashboard sales", meta.SearchText())
}
