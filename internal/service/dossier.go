package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"estatescout/internal/model"
)

// DossierAssembler creates a per-property folder holding the relocated
// screenshot, a draft lease and an info sheet. Document generation prefers
// the generative assist with a deterministic template fallback.
type DossierAssembler struct {
	generator Generator
	dataDir   string
}

// NewDossierAssembler creates a dossier assembler
func NewDossierAssembler(generator Generator, dataDir string) *DossierAssembler {
	return &DossierAssembler{generator: generator, dataDir: dataDir}
}

// Assemble builds one dossier per candidate, mutating each property's path
// fields. screenshots is index-aligned with properties; an empty slot means
// no image. The returned folder slice keeps the same alignment.
func (a *DossierAssembler) Assemble(ctx context.Context, properties []model.Property, screenshots []string, currency model.Currency) []string {
	folders := make([]string, len(properties))
	basePath := filepath.Join(a.dataDir, "listings")
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		log.Printf("❌ Failed to create listings directory: %v", err)
		return folders
	}

	for idx := range properties {
		prop := &properties[idx]
		if prop.Address == "" {
			continue
		}
		log.Printf("📁 Creating dossier for property %d/%d: %s", idx+1, len(properties), prop.Address)

		folderName := fmt.Sprintf("%s_%d", sanitizeFolderName(prop.Address), idx)
		folderPath := filepath.Join(basePath, folderName)
		if err := os.MkdirAll(folderPath, 0o755); err != nil {
			log.Printf("   ❌ Failed to create folder: %v", err)
			continue
		}

		if idx < len(screenshots) && screenshots[idx] != "" {
			dest := filepath.Join(folderPath, "street_view.png")
			if err := moveFile(screenshots[idx], dest); err != nil {
				log.Printf("   ⚠️ Screenshot move failed: %v", err)
			} else {
				prop.ScreenshotPath = dest
			}
		} else {
			log.Printf("   ⚠️ No screenshot available for property %d", idx+1)
		}

		description, lease := a.generateDocuments(ctx, *prop, currency)

		leasePath := filepath.Join(folderPath, "lease_draft.txt")
		if err := os.WriteFile(leasePath, []byte(renderLeaseDocument(*prop, lease, currency)), 0o644); err != nil {
			log.Printf("   ❌ Failed to write lease draft: %v", err)
			continue
		}

		infoPath := filepath.Join(folderPath, "info.txt")
		if err := os.WriteFile(infoPath, []byte(renderInfoDocument(*prop, description, currency)), 0o644); err != nil {
			log.Printf("   ❌ Failed to write info sheet: %v", err)
			continue
		}

		prop.FolderPath = folderPath
		prop.LeasePath = leasePath
		prop.InfoPath = infoPath
		folders[idx] = folderPath
		log.Printf("   ✅ Dossier complete: %s", folderPath)
	}

	return folders
}

const descriptionSystemPrompt = `Write a professional, engaging 3-4 sentence property listing description.
Highlight lifestyle benefits, neighbourhood feel, and key amenities.
Do NOT make up specific amenity names (e.g. "The Sunrise Pool") unless they were in the existing notes.
Return ONLY the description text - no JSON, no title, no extra commentary.`

const leaseSystemPrompt = `Draft a detailed but realistic DRAFT lease agreement for the given rental property.
Include standard clauses that a real residential lease would have.
Make it property-specific - weave in the actual address, rent, bedrooms, and pet policy.

Include these sections (write in plain prose, NOT bullet points):
  1. Parties & Property
  2. Lease Term & Rent
  3. Security Deposit
  4. Tenant Obligations
  5. Landlord Responsibilities
  6. Pet Policy (expand if pets allowed - fees, rules)
  7. Termination & Notice
  8. General Conditions

Return ONLY the lease text - no JSON wrapper.`

// generateDocuments produces the description and lease body, preferring the
// generative assist. Both calls run concurrently; a failure on either side
// falls back to the deterministic text for that document only.
func (a *DossierAssembler) generateDocuments(ctx context.Context, prop model.Property, currency model.Currency) (description, lease string) {
	description = prop.Description
	lease = defaultLeaseTerms(prop, currency)

	if a.generator == nil || !a.generator.Enabled() {
		return description, lease
	}

	details := fmt.Sprintf(
		"Property details:\n  Address       : %s\n  Monthly Rent  : %s%d\n  Bedrooms      : %d\n  Bathrooms     : %d\n  Pet Policy    : %s\n  Existing notes: %s",
		prop.Address, currency.Symbol, prop.Price, prop.Bedrooms, prop.Bathrooms, petPolicy(prop), prop.Description,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := a.generator.Generate(gctx, descriptionSystemPrompt, details)
		if err != nil {
			log.Printf("   ⚠️ Description generation failed: %v, using extracted text", err)
			return nil
		}
		if text = strings.TrimSpace(text); text != "" {
			description = text
		}
		return nil
	})
	g.Go(func() error {
		text, err := a.generator.Generate(gctx, leaseSystemPrompt, details)
		if err != nil {
			log.Printf("   ⚠️ Lease generation failed: %v, using template", err)
			return nil
		}
		if text = strings.TrimSpace(text); text != "" {
			lease = text
		}
		return nil
	})
	_ = g.Wait()

	return description, lease
}

var (
	folderStripPattern    = regexp.MustCompile(`[^\w\s-]`)
	folderCollapsePattern = regexp.MustCompile(`\s+`)
)

// sanitizeFolderName derives a filesystem-safe name from an address.
func sanitizeFolderName(address string) string {
	clean := folderStripPattern.ReplaceAllString(address, "")
	return folderCollapsePattern.ReplaceAllString(clean, "_")
}

// moveFile renames src to dest, copying across filesystems if needed.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write destination file: %w", err)
	}
	return os.Remove(src)
}

func petPolicy(prop model.Property) string {
	if prop.PetFriendly {
		return "Pets Allowed"
	}
	return "No Pets"
}

const documentRule = "═══════════════════════════════════════════════════════════"
const documentLightRule = "───────────────────────────────────────────────────────────"

// renderLeaseDocument wraps the lease body in the standard header and the
// mandatory non-binding disclaimer.
func renderLeaseDocument(prop model.Property, leaseBody string, currency model.Currency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n                    DRAFT LEASE AGREEMENT\n%s\n\n", documentRule, documentRule)
	fmt.Fprintf(&b, "Property Address : %s\n", prop.Address)
	fmt.Fprintf(&b, "Monthly Rent     : %s%d\n", currency.Symbol, prop.Price)
	fmt.Fprintf(&b, "Bedrooms         : %d\n", prop.Bedrooms)
	fmt.Fprintf(&b, "Bathrooms        : %d\n", prop.Bathrooms)
	fmt.Fprintf(&b, "Pet Policy       : %s\n\n", petPolicy(prop))
	fmt.Fprintf(&b, "%s\n\n%s\n\n", documentLightRule, leaseBody)
	fmt.Fprintf(&b, "%s\n⚠   IMPORTANT NOTICE\n%s\n\n", documentRule, documentRule)
	b.WriteString("This is an automatically generated DRAFT lease agreement.\n")
	b.WriteString("This document is NOT legally binding.\n\n")
	b.WriteString("Please consult with:\n")
	b.WriteString("  • A licensed real estate attorney\n")
	b.WriteString("  • The property owner / landlord\n")
	b.WriteString("  • Your local housing authority\n\n")
	b.WriteString("before signing any legally binding lease agreement.\n\n")
	fmt.Fprintf(&b, "%s\nGenerated by EstateScout\n%s\n", documentRule, documentRule)
	return b.String()
}

// renderInfoDocument builds the property info sheet.
func renderInfoDocument(prop model.Property, description string, currency model.Currency) string {
	petLine := "✗ No Pets"
	if prop.PetFriendly {
		petLine = "✓ Pets Allowed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n                    PROPERTY INFORMATION\n%s\n\n", documentRule, documentRule)
	fmt.Fprintf(&b, "Title       : %s\n", prop.Title)
	fmt.Fprintf(&b, "Price       : %s%d/month\n", currency.Symbol, prop.Price)
	fmt.Fprintf(&b, "Address     : %s\n\n", prop.Address)
	b.WriteString("Specifications:\n")
	fmt.Fprintf(&b, "  • Bedrooms  : %d\n", prop.Bedrooms)
	fmt.Fprintf(&b, "  • Bathrooms : %d\n", prop.Bathrooms)
	fmt.Fprintf(&b, "  • Pet Policy: %s\n\n", petLine)
	fmt.Fprintf(&b, "%s\nDescription\n%s\n\n%s\n\n", documentLightRule, documentLightRule, description)
	if prop.URL != "" {
		fmt.Fprintf(&b, "Source URL: %s\n\n", prop.URL)
	}
	fmt.Fprintf(&b, "%s\nFiles in this dossier\n%s\n\n", documentRule, documentRule)
	b.WriteString("  1. street_view.png   - Map / street-view screenshot\n")
	b.WriteString("  2. lease_draft.txt   - Draft lease agreement\n")
	b.WriteString("  3. info.txt          - This file (property information)\n\n")
	fmt.Fprintf(&b, "%s\nGenerated by EstateScout\n%s\n", documentRule, documentRule)
	return b.String()
}

// defaultLeaseTerms is the deterministic lease body used when generative
// drafting is unavailable. Identical property fields and currency symbol
// produce byte-identical output.
func defaultLeaseTerms(prop model.Property, currency model.Currency) string {
	petClause := "No pets of any kind are permitted on the premises without prior written consent from the Landlord."
	if prop.PetFriendly {
		petClause = fmt.Sprintf(
			"Pets are permitted subject to a one-time pet deposit of %s500 and a monthly pet fee of %s50. Tenant must provide proof of renter's insurance that covers pet liability.",
			currency.Symbol, currency.Symbol,
		)
	}

	return fmt.Sprintf(`1. PARTIES & PROPERTY
This Draft Lease Agreement ("Agreement") is entered into between the Landlord and the Tenant (details to be finalised at signing) for the residential property located at %s.

2. LEASE TERM & RENT
The lease term shall be twelve (12) months commencing on a date mutually agreed upon. The monthly rent is %s%d, payable on or before the 1st of each calendar month. Late payments beyond a grace period of five (5) days will incur a late fee of 5%% of the monthly rent.

3. SECURITY DEPOSIT
A security deposit equal to one (1) month's rent (%s%d) is due prior to move-in. The deposit will be returned within 30 days of vacating, less any deductions for damages beyond normal wear and tear.

4. TENANT OBLIGATIONS
The Tenant is responsible for keeping the property clean and in good repair, paying all utilities unless otherwise agreed, and complying with all local housing and health codes.

5. LANDLORD RESPONSIBILITIES
The Landlord shall maintain the structural integrity of the building, ensure functioning heating/cooling systems, and address any emergency repairs within 24 hours of written notice.

6. PET POLICY
%s

7. TERMINATION & NOTICE
Either party may terminate this Agreement by providing at least 30 days' written notice before the end of the lease term. Early termination by the Tenant is subject to a fee equal to two (2) months' rent.

8. GENERAL CONDITIONS
This Agreement shall be governed by the laws of the state in which the property is located. Any disputes shall first be attempted through mediation before legal action is pursued.`,
		prop.Address, currency.Symbol, prop.Price, currency.Symbol, prop.Price, petClause)
}
